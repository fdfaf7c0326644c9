// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pictoria-app/pictoria/internal/session"
	"github.com/pictoria-app/pictoria/internal/tui"
)

// HydrateCmd reads the persisted credential once at startup.
func HydrateCmd(store *session.Store) tea.Cmd {
	return func() tea.Msg {
		return tui.HydratedMsg{Err: store.Hydrate()}
	}
}

// LoginCmd exchanges identifier and secret for a credential.
func LoginCmd(store *session.Store, identifier, secret string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		_, err := store.Login(ctx, identifier, secret)
		return tui.LoginResultMsg{Err: err}
	}
}

// RegisterCmd creates an account. It does not log in.
func RegisterCmd(store *session.Store, email, secret string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return tui.RegisterResultMsg{Err: store.Register(ctx, email, secret)}
	}
}

// LogoutCmd clears the session. The route is re-resolved when the result
// arrives.
func LogoutCmd(store *session.Store) tea.Cmd {
	return func() tea.Msg {
		return tui.LogoutResultMsg{Err: store.Logout()}
	}
}

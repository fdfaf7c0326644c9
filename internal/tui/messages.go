package tui

import (
	"github.com/pictoria-app/pictoria/internal/album"
	"github.com/pictoria-app/pictoria/internal/session"
)

// ============================================================================
// Session Messages
// ============================================================================

// HydratedMsg signals that the persisted credential has been read.
type HydratedMsg struct {
	Err error
}

// SessionChangedMsg is forwarded from session.Store subscriptions so the
// route is re-evaluated after changes made outside the event loop, such as
// a 401 invalidation inside a request command.
type SessionChangedMsg struct {
	State session.State
}

// LoginResultMsg carries the outcome of a login attempt.
type LoginResultMsg struct {
	Err error
}

// LogoutResultMsg carries the outcome of a logout. The session is cleared
// either way; Err reports a persisted copy that could not be removed.
type LogoutResultMsg struct {
	Err error
}

// RegisterResultMsg carries the outcome of a registration attempt.
type RegisterResultMsg struct {
	Err error
}

// ============================================================================
// Album Messages
// ============================================================================

// AlbumsLoadedMsg carries the committed album list.
type AlbumsLoadedMsg struct {
	Albums []album.Summary
	Err    error
}

// AlbumLoadedMsg carries one committed album.
type AlbumLoadedMsg struct {
	Folder string
	Detail album.Detail
	Err    error
}

// UploadedMsg carries the outcome of an upload.
type UploadedMsg struct {
	Album album.Summary
	Err   error
}

// ============================================================================
// Control Messages
// ============================================================================

// CtrlCResetMsg clears the pending quit confirmation.
type CtrlCResetMsg struct{}

// Package views provides TUI view components for the Pictoria application.
package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/route"
	"github.com/pictoria-app/pictoria/internal/tui"
)

// ============================================================================
// Message Types
// ============================================================================

// NavigateMsg asks the app to show Path.
type NavigateMsg struct {
	Path      string
	ImageHint string
}

// BackMsg asks the app to return to the previous location.
type BackMsg struct{}

// LogoutMsg is sent when the user chooses to log out.
type LogoutMsg struct{}

// SubmitUploadMsg is sent when the user submits an image path.
type SubmitUploadMsg struct {
	Path string
}

// ============================================================================
// HomeModel
// ============================================================================

type homeAction int

const (
	actionUpload homeAction = iota
	actionGallery
	actionLogout
)

var homeMenu = []struct {
	action homeAction
	label  string
}{
	{actionUpload, "Create album from an image"},
	{actionGallery, "Album gallery"},
	{actionLogout, "Log out"},
}

// HomeModel is the view model for the landing screen.
type HomeModel struct {
	cursor    int
	uploading bool // path prompt open
	busy      bool // upload in flight
	pathInput textinput.Model
	spinner   spinner.Model
	errText   string
	account   string
	width     int
	height    int
}

// NewHomeModel creates a new HomeModel. account is shown in the header when
// known.
func NewHomeModel(account string, width, height int) HomeModel {
	ti := textinput.New()
	ti.Placeholder = "path/to/image.png"
	ti.CharLimit = 4096
	ti.Width = max(20, width-10)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return HomeModel{
		pathInput: ti,
		spinner:   sp,
		account:   account,
		width:     width,
		height:    height,
	}
}

// Init returns the initial command for the home view.
func (m HomeModel) Init() tea.Cmd {
	return nil
}

// Busy reports whether an upload is in flight.
func (m HomeModel) Busy() bool {
	return m.busy
}

// Error returns the inline error text, if any.
func (m HomeModel) Error() string {
	return m.errText
}

// UploadFailed ends an upload with err shown inline.
func (m HomeModel) UploadFailed(err error) HomeModel {
	m.busy = false
	m.errText = apierr.Describe(err)
	return m
}

// Update handles messages for the home view.
func (m HomeModel) Update(msg tea.Msg) (HomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pathInput.Width = max(20, msg.Width-10)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		if m.uploading {
			return m.updatePrompt(msg)
		}
		switch {
		case key.Matches(msg, tui.DefaultKeyMap.Up):
			m.cursor = (m.cursor + len(homeMenu) - 1) % len(homeMenu)
		case key.Matches(msg, tui.DefaultKeyMap.Down):
			m.cursor = (m.cursor + 1) % len(homeMenu)
		case key.Matches(msg, tui.DefaultKeyMap.Enter):
			return m.choose()
		}
	}
	return m, nil
}

func (m HomeModel) choose() (HomeModel, tea.Cmd) {
	switch homeMenu[m.cursor].action {
	case actionUpload:
		m.uploading = true
		m.errText = ""
		m.pathInput.SetValue("")
		m.pathInput.Focus()
		return m, textinput.Blink
	case actionGallery:
		return m, func() tea.Msg { return NavigateMsg{Path: route.PathGallery} }
	default:
		return m, func() tea.Msg { return LogoutMsg{} }
	}
}

func (m HomeModel) updatePrompt(msg tea.KeyMsg) (HomeModel, tea.Cmd) {
	switch msg.String() {
	case tui.KeyEsc:
		m.uploading = false
		m.pathInput.Blur()
		return m, nil
	case tui.KeyEnter:
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			return m, nil
		}
		m.busy = true
		m.errText = ""
		return m, tea.Batch(
			func() tea.Msg { return SubmitUploadMsg{Path: path} },
			m.spinner.Tick,
		)
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

// View renders the home view.
func (m HomeModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Pictoria"))
	if m.account != "" {
		b.WriteString(tui.DimStyle.Render("  " + m.account))
	}
	b.WriteString("\n\n")

	for i, item := range homeMenu {
		line := "  " + item.label
		if i == m.cursor {
			line = tui.SelectedStyle.Render("> " + item.label)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.uploading {
		b.WriteString("Image to upload:\n")
		b.WriteString(m.pathInput.View())
		b.WriteString("\n\n")
	}

	switch {
	case m.busy:
		b.WriteString(fmt.Sprintf("%s Generating stories...", m.spinner.View()))
		b.WriteString("\n\n")
	case m.errText != "":
		b.WriteString(tui.ErrorStyle.Render(m.errText))
		b.WriteString("\n\n")
	}

	footer := "↑/↓: Move    Enter: Select    Ctrl+C: Exit"
	if m.uploading {
		footer = "Enter: Upload    Esc: Cancel"
	}
	b.WriteString(tui.DimStyle.Render(footer))

	return tui.BoxStyle.Render(b.String())
}

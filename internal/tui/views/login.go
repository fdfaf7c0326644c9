package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/tui"
)

// ============================================================================
// Message Types
// ============================================================================

// SubmitLoginMsg is sent when the user submits the login form.
type SubmitLoginMsg struct {
	Identifier string
	Secret     string
}

// SubmitRegisterMsg is sent when the user submits the registration form.
type SubmitRegisterMsg struct {
	Email  string
	Secret string
}

// ============================================================================
// LoginModel
// ============================================================================

// LoginMode selects the login or the registration form.
type LoginMode int

const (
	ModeLogin LoginMode = iota
	ModeRegister
)

const (
	fieldEmail = iota
	fieldPassword
)

// LoginModel is the view model for the login screen.
type LoginModel struct {
	mode    LoginMode
	inputs  []textinput.Model
	focus   int
	busy    bool
	spinner spinner.Model
	errText string
	notice  string
	width   int
	height  int
}

// NewLoginModel creates a LoginModel in login mode with the email field focused.
func NewLoginModel(width, height int) LoginModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := LoginModel{
		inputs:  []textinput.Model{email, password},
		spinner: sp,
	}
	m.resize(width, height)
	return m
}

// Init returns the initial command for the login view.
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

// Mode returns the active form.
func (m LoginModel) Mode() LoginMode {
	return m.mode
}

// Busy reports whether a submission is in flight.
func (m LoginModel) Busy() bool {
	return m.busy
}

// Error returns the inline error text, if any.
func (m LoginModel) Error() string {
	return m.errText
}

// Notice returns the inline success text, if any.
func (m LoginModel) Notice() string {
	return m.notice
}

// LoginFailed ends a login submission with err shown inline.
func (m LoginModel) LoginFailed(err error) LoginModel {
	m.busy = false
	m.errText = apierr.Describe(err)
	return m
}

// ShowError displays text inline without changing the form.
func (m LoginModel) ShowError(text string) LoginModel {
	m.errText = text
	m.notice = ""
	return m
}

// RegisterDone ends a registration submission. On success the login form is
// shown with the email kept and a notice; nobody is logged in.
func (m LoginModel) RegisterDone(err error) LoginModel {
	m.busy = false
	if err != nil {
		m.errText = apierr.Describe(err)
		return m
	}
	m.mode = ModeLogin
	m.errText = ""
	m.notice = "Account created. Log in to continue."
	m.inputs[fieldPassword].SetValue("")
	return m.focusField(fieldPassword)
}

// Update handles messages for the login view.
func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
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
		switch {
		case key.Matches(msg, tui.DefaultKeyMap.SwitchMode):
			if m.mode == ModeLogin {
				m.mode = ModeRegister
			} else {
				m.mode = ModeLogin
			}
			m.errText, m.notice = "", ""
			return m, nil

		case msg.String() == tui.KeyTab || msg.String() == tui.KeyDown:
			return m.focusField((m.focus + 1) % len(m.inputs)), nil

		case msg.String() == tui.KeyShiftTab || msg.String() == tui.KeyUp:
			return m.focusField((m.focus + len(m.inputs) - 1) % len(m.inputs)), nil

		case msg.String() == tui.KeyEnter:
			if m.focus == fieldEmail {
				return m.focusField(fieldPassword), nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m LoginModel) submit() (LoginModel, tea.Cmd) {
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	secret := m.inputs[fieldPassword].Value()
	if email == "" || secret == "" {
		m.errText = "Email and password are required."
		return m, nil
	}

	m.busy = true
	m.errText, m.notice = "", ""

	mode := m.mode
	submit := func() tea.Msg {
		if mode == ModeRegister {
			return SubmitRegisterMsg{Email: email, Secret: secret}
		}
		return SubmitLoginMsg{Identifier: email, Secret: secret}
	}
	return m, tea.Batch(submit, m.spinner.Tick)
}

func (m LoginModel) focusField(i int) LoginModel {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
	return m
}

func (m *LoginModel) resize(width, height int) {
	m.width = width
	m.height = height
	for i := range m.inputs {
		m.inputs[i].Width = max(20, min(width-16, 48))
	}
}

// View renders the login view.
func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Pictoria"))
	b.WriteString("\n\n")

	login, register := tui.InactiveTabStyle, tui.InactiveTabStyle
	if m.mode == ModeLogin {
		login = tui.ActiveTabStyle
	} else {
		register = tui.ActiveTabStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, login.Render("Log in"), " ", register.Render("Register")))
	b.WriteString("\n\n")

	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.busy:
		label := "Logging in..."
		if m.mode == ModeRegister {
			label = "Creating account..."
		}
		b.WriteString(m.spinner.View() + " " + label)
	case m.errText != "":
		b.WriteString(tui.ErrorStyle.Render(m.errText))
	case m.notice != "":
		b.WriteString(tui.SuccessStyle.Render(m.notice))
	}
	b.WriteString("\n\n")

	b.WriteString(tui.DimStyle.Render("Tab: Next field    Enter: Submit    Ctrl+T: Log in/Register    Ctrl+C: Exit"))

	return tui.BoxStyle.Render(b.String())
}

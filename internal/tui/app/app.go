// Package app provides the main TUI application that wires all views together.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pictoria-app/pictoria/internal/album"
	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/composer"
	"github.com/pictoria-app/pictoria/internal/log"
	"github.com/pictoria-app/pictoria/internal/route"
	"github.com/pictoria-app/pictoria/internal/session"
	"github.com/pictoria-app/pictoria/internal/tui"
	"github.com/pictoria-app/pictoria/internal/tui/commands"
	"github.com/pictoria-app/pictoria/internal/tui/views"
)

// Deps holds what the screens need.
type Deps struct {
	Store   *session.Store
	Loader  *album.Loader
	Speaker composer.Speaker
	Timeout time.Duration
	// Audio is the initial audio mode of every composer.
	Audio  bool
	Voice  composer.Voice
	Logger *log.Logger
}

// App is the main TUI application. Every Update ends by resolving the
// current path against the session, so screens follow login, logout and
// 401 invalidation without being told.
type App struct {
	model *tui.Model
	deps  Deps

	decision route.Decision
	entered  bool // a screen has been entered since hydration
	loggedIn bool

	// logoutErr is shown on the login screen once it is entered.
	logoutErr error

	// View models
	loginView   views.LoginModel
	homeView    views.HomeModel
	galleryView views.GalleryModel
	albumView   views.AlbumModel
}

// New creates a new App.
func New(deps Deps) *App {
	if deps.Timeout <= 0 {
		deps.Timeout = 60 * time.Second
	}
	if deps.Voice == (composer.Voice{}) {
		deps.Voice = composer.DefaultVoice
	}
	if deps.Logger == nil {
		deps.Logger = log.NewNop()
	}
	return &App{
		model:    tui.NewModel(),
		deps:     deps,
		decision: route.Decision{Suspended: true},
	}
}

// Init hydrates the session. Nothing is rendered until it completes.
func (a *App) Init() tea.Cmd {
	return commands.HydrateCmd(a.deps.Store)
}

// Screen returns the screen being shown.
func (a *App) Screen() route.Screen {
	return a.decision.Screen
}

// Location returns the current history entry.
func (a *App) Location() tui.Location {
	return a.model.Current()
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.handle(msg)
	cmd = tea.Batch(cmd, a.sync())
	if a.logoutErr != nil && a.decision.Screen == route.ScreenLogin {
		a.loginView = a.loginView.ShowError("Logged out, but the saved credential could not be removed: " + apierr.Describe(a.logoutErr))
		a.logoutErr = nil
	}
	return a, cmd
}

func (a *App) handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		return a.forward(msg)

	case tea.KeyMsg:
		if msg.String() == tui.KeyCtrlC {
			if a.model.CtrlCPending {
				return tea.Quit
			}
			a.model.CtrlCPending = true
			return tea.Tick(time.Second, func(time.Time) tea.Msg {
				return tui.CtrlCResetMsg{}
			})
		}
		return a.forward(msg)

	case tui.CtrlCResetMsg:
		a.model.CtrlCPending = false
		return nil

	case tui.HydratedMsg, tui.SessionChangedMsg:
		// The route is re-resolved below.
		return nil

	// --- Navigation ---

	case views.NavigateMsg:
		a.model.Navigate(tui.Location{Path: msg.Path, ImageHint: msg.ImageHint})
		return nil

	case views.BackMsg:
		a.model.Back()
		return nil

	// --- Session ---

	case views.SubmitLoginMsg:
		return commands.LoginCmd(a.deps.Store, msg.Identifier, msg.Secret, a.deps.Timeout)

	case views.SubmitRegisterMsg:
		return commands.RegisterCmd(a.deps.Store, msg.Email, msg.Secret, a.deps.Timeout)

	case tui.LoginResultMsg:
		if msg.Err != nil && a.decision.Screen == route.ScreenLogin {
			a.loginView = a.loginView.LoginFailed(msg.Err)
		}
		return nil

	case tui.RegisterResultMsg:
		if a.decision.Screen == route.ScreenLogin {
			a.loginView = a.loginView.RegisterDone(msg.Err)
		}
		return nil

	case views.LogoutMsg:
		return commands.LogoutCmd(a.deps.Store)

	case tui.LogoutResultMsg:
		a.logoutErr = msg.Err
		return nil

	// --- Albums ---

	case views.SubmitUploadMsg:
		return commands.UploadCmd(a.deps.Loader, msg.Path, a.deps.Timeout)

	case tui.UploadedMsg:
		if msg.Err != nil {
			if a.decision.Screen == route.ScreenLanding {
				a.homeView = a.homeView.UploadFailed(msg.Err)
			}
			return nil
		}
		a.model.Navigate(tui.Location{
			Path:      route.AlbumPath(msg.Album.FolderName),
			ImageHint: msg.Album.ImageURL,
		})
		return nil

	case views.RefreshAlbumsMsg:
		if a.decision.Screen != route.ScreenGallery {
			return nil
		}
		a.galleryView = a.galleryView.Reloading()
		return tea.Batch(a.galleryView.Init(), commands.ListAlbumsCmd(a.deps.Loader, a.deps.Timeout))

	case tui.AlbumsLoadedMsg:
		if a.decision.Screen == route.ScreenGallery {
			a.galleryView = a.galleryView.Loaded(msg.Albums, msg.Err)
		}
		return nil

	case tui.AlbumLoadedMsg:
		if a.decision.Screen == route.ScreenAlbum && a.albumView.Folder() == msg.Folder {
			a.albumView = a.albumView.Loaded(msg.Detail, msg.Err)
		}
		return nil
	}

	return a.forward(msg)
}

// forward passes msg to the view on screen.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.decision.Screen {
	case route.ScreenLogin:
		a.loginView, cmd = a.loginView.Update(msg)
	case route.ScreenLanding:
		a.homeView, cmd = a.homeView.Update(msg)
	case route.ScreenGallery:
		a.galleryView, cmd = a.galleryView.Update(msg)
	case route.ScreenAlbum:
		a.albumView, cmd = a.albumView.Update(msg)
	}
	return cmd
}

// sync resolves the current location and enters a new screen when the
// decision changed. A login or logout starts a fresh history.
func (a *App) sync() tea.Cmd {
	state := a.deps.Store.State()
	loc := a.model.Current()
	d := route.Resolve(state, loc.Path)
	if d.Suspended {
		a.decision = d
		return nil
	}

	switch {
	case !a.entered || state.LoggedIn() != a.loggedIn:
		if d.Redirected {
			loc = tui.Location{Path: d.Path}
		}
		a.model.Reset(loc)
		a.loggedIn = state.LoggedIn()
	case d.Redirected:
		loc = tui.Location{Path: d.Path}
		a.model.Replace(loc)
	}

	prev := a.decision
	a.decision = d
	if a.entered && prev.Screen == d.Screen && prev.Folder == d.Folder {
		return nil
	}
	a.entered = true

	if prev.Screen == route.ScreenAlbum {
		a.deps.Loader.Forget(prev.Folder)
	}
	return a.enter(d, loc.ImageHint)
}

func (a *App) enter(d route.Decision, imageHint string) tea.Cmd {
	w, h := a.model.Width, a.model.Height

	switch d.Screen {
	case route.ScreenLogin:
		a.loginView = views.NewLoginModel(w, h)
		return a.loginView.Init()

	case route.ScreenLanding:
		a.homeView = views.NewHomeModel(a.account(), w, h)
		return a.homeView.Init()

	case route.ScreenGallery:
		a.galleryView = views.NewGalleryModel(w, h)
		return tea.Batch(a.galleryView.Init(), commands.ListAlbumsCmd(a.deps.Loader, a.deps.Timeout))

	case route.ScreenAlbum:
		comp := composer.New(a.deps.Speaker,
			composer.WithAudio(a.deps.Audio),
			composer.WithVoice(a.deps.Voice),
			composer.WithLogger(a.deps.Logger),
		)
		a.albumView = views.NewAlbumModel(d.Folder, imageHint, comp, w, h)
		return tea.Batch(a.albumView.Init(), commands.GetAlbumCmd(a.deps.Loader, d.Folder, a.deps.Timeout))
	}
	return nil
}

func (a *App) account() string {
	id, err := session.ParseIdentity(a.deps.Store.Credential())
	if err != nil {
		return ""
	}
	return id.Subject
}

// View renders the current application state. Before hydration it renders
// nothing at all.
func (a *App) View() string {
	if a.decision.Suspended {
		return ""
	}

	var content string
	switch a.decision.Screen {
	case route.ScreenLogin:
		content = a.loginView.View()
	case route.ScreenLanding:
		content = a.homeView.View()
	case route.ScreenGallery:
		content = a.galleryView.View()
	case route.ScreenAlbum:
		content = a.albumView.View()
	}

	if a.model.CtrlCPending {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", tui.WarningStyle.Render("Press Ctrl+C again to exit"))
	}

	if a.model.Width == 0 || a.model.Height == 0 {
		return content
	}
	return lipgloss.Place(a.model.Width, a.model.Height, lipgloss.Center, lipgloss.Center, content)
}

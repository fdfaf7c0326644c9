package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pictoria-app/pictoria/internal/album"
	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/route"
	"github.com/pictoria-app/pictoria/internal/tui"
)

// RefreshAlbumsMsg asks the app to fetch the album list again.
type RefreshAlbumsMsg struct{}

// ============================================================================
// AlbumItem
// ============================================================================

// AlbumItem implements list.Item for the album list.
type AlbumItem struct {
	album album.Summary
}

// Title returns the album folder for list display.
func (i AlbumItem) Title() string {
	return i.album.FolderName
}

// Description returns the reference image location.
func (i AlbumItem) Description() string {
	if i.album.ImageURL == "" {
		return "no image"
	}
	return i.album.ImageURL
}

// FilterValue returns the value used for filtering in the list.
func (i AlbumItem) FilterValue() string {
	return i.album.FolderName
}

// ============================================================================
// GalleryModel
// ============================================================================

// GalleryModel is the view model for the album list. Loading, failure,
// "no albums" and the list itself are mutually exclusive states.
type GalleryModel struct {
	phase   album.Phase
	errText string
	albums  []album.Summary
	list    list.Model
	spinner spinner.Model
	width   int
	height  int
}

const (
	maxGalleryWidth  = 90
	maxGalleryHeight = 18
)

// NewGalleryModel creates a GalleryModel waiting for its first load.
func NewGalleryModel(width, height int) GalleryModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("#7C3AED")).
		BorderForeground(lipgloss.Color("#7C3AED"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("#9CA3AF"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Albums"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := GalleryModel{
		phase:   album.PhaseInFlight,
		list:    l,
		spinner: sp,
	}
	m.resize(width, height)
	return m
}

// Init starts the loading spinner.
func (m GalleryModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Phase returns the load phase being shown.
func (m GalleryModel) Phase() album.Phase {
	return m.phase
}

// Empty reports the "no albums" state: a successful load with nothing in it.
func (m GalleryModel) Empty() bool {
	return m.phase == album.PhaseSucceeded && len(m.albums) == 0
}

// Error returns the inline error text in the failed state.
func (m GalleryModel) Error() string {
	return m.errText
}

// Loaded applies a committed list result.
func (m GalleryModel) Loaded(albums []album.Summary, err error) GalleryModel {
	if err != nil {
		m.phase = album.PhaseFailed
		m.errText = apierr.Describe(err)
		m.albums = nil
		m.list.SetItems(nil)
		return m
	}

	m.phase = album.PhaseSucceeded
	m.errText = ""
	m.albums = albums
	items := make([]list.Item, len(albums))
	for i, a := range albums {
		items[i] = AlbumItem{album: a}
	}
	m.list.SetItems(items)
	return m
}

// Reloading shows the spinner again for a fresh request.
func (m GalleryModel) Reloading() GalleryModel {
	m.phase = album.PhaseInFlight
	m.errText = ""
	return m
}

// Update handles messages for the gallery view.
func (m GalleryModel) Update(msg tea.Msg) (GalleryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.phase != album.PhaseInFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		filtering := m.list.FilterState() == list.Filtering
		switch {
		case !filtering && key.Matches(msg, tui.DefaultKeyMap.Escape):
			return m, func() tea.Msg { return BackMsg{} }

		case m.phase == album.PhaseInFlight:
			return m, nil

		case !filtering && key.Matches(msg, tui.DefaultKeyMap.Refresh):
			return m, func() tea.Msg { return RefreshAlbumsMsg{} }

		case m.phase != album.PhaseSucceeded || len(m.albums) == 0:
			if key.Matches(msg, tui.DefaultKeyMap.Enter) {
				return m, func() tea.Msg { return NavigateMsg{Path: route.PathLanding} }
			}
			return m, nil

		case !filtering && key.Matches(msg, tui.DefaultKeyMap.Enter):
			item, ok := m.list.SelectedItem().(AlbumItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return NavigateMsg{Path: route.AlbumPath(item.album.FolderName), ImageHint: item.album.ImageURL}
			}
		}
	}

	if m.phase != album.PhaseSucceeded {
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *GalleryModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(max(20, min(width, maxGalleryWidth)-8), max(5, min(height, maxGalleryHeight+4)-4))
}

// View renders the gallery view.
func (m GalleryModel) View() string {
	var b strings.Builder

	switch {
	case m.phase == album.PhaseInFlight || m.phase == album.PhaseIdle:
		b.WriteString(tui.TitleStyle.Render("Albums"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s Loading albums...", m.spinner.View()))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render("Esc: Back"))

	case m.phase == album.PhaseFailed:
		b.WriteString(tui.TitleStyle.Render("Albums"))
		b.WriteString("\n\n")
		b.WriteString(tui.ErrorStyle.Render(m.errText))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render("r: Retry    Esc: Back"))

	case len(m.albums) == 0:
		b.WriteString(tui.TitleStyle.Render("Albums"))
		b.WriteString("\n\n")
		b.WriteString("No albums yet.\n")
		b.WriteString(tui.DimStyle.Render("Upload an image on the home screen to create one."))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render("Enter: Go home    Esc: Back"))

	default:
		b.WriteString(m.list.View())
		b.WriteString("\n")
		b.WriteString(tui.DimStyle.Render("Enter: Open    /: Filter    r: Reload    Esc: Back"))
	}

	return tui.BoxStyle.Render(b.String())
}

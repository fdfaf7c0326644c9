package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pictoria-app/pictoria/internal/album"
	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/composer"
	"github.com/pictoria-app/pictoria/internal/tui"
)

// AlbumModel is the view model for the pictogram composer screen. The
// composer it wraps lives exactly as long as this screen.
type AlbumModel struct {
	folder    string
	imageHint string
	comp      *composer.Composer

	// Cursor over the story blocks, or over the sentence when onSentence.
	block      int
	tile       int
	onSentence bool
	pick       int

	spinner spinner.Model
	width   int
	height  int
}

// NewAlbumModel creates the screen for folder. imageHint, when set, is shown
// as the reference image instead of the one the album reports.
func NewAlbumModel(folder, imageHint string, comp *composer.Composer, width, height int) AlbumModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return AlbumModel{
		folder:    folder,
		imageHint: imageHint,
		comp:      comp,
		spinner:   sp,
		width:     width,
		height:    height,
	}
}

// Init starts the loading spinner.
func (m AlbumModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Folder returns the album this screen shows.
func (m AlbumModel) Folder() string {
	return m.folder
}

// Composer returns the selection state machine.
func (m AlbumModel) Composer() *composer.Composer {
	return m.comp
}

// ImageURL returns the reference image to show.
func (m AlbumModel) ImageURL() string {
	if m.imageHint != "" {
		return m.imageHint
	}
	return m.comp.ImageURL()
}

// Loaded applies the committed album result.
func (m AlbumModel) Loaded(detail album.Detail, err error) AlbumModel {
	if err != nil {
		m.comp.Fail(err)
		return m
	}
	m.comp.Load(detail)
	m.block, m.tile = 0, 0
	for i, b := range m.comp.Blocks() {
		if len(b.Pictograms) > 0 {
			m.block = i
			break
		}
	}
	return m
}

// Update handles messages for the album view.
func (m AlbumModel) Update(msg tea.Msg) (AlbumModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.comp.Phase() != composer.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		keys := tui.DefaultKeyMap
		if key.Matches(msg, keys.Escape) {
			return m, func() tea.Msg { return BackMsg{} }
		}
		if m.comp.Phase() != composer.PhaseReady {
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.ToggleAudio):
			m.comp.ToggleAudio()
		case key.Matches(msg, keys.Clear):
			m.comp.Clear()
			m.onSentence, m.pick = false, 0
		case key.Matches(msg, keys.Speak):
			m.comp.SpeakSentence()
		case key.Matches(msg, keys.Tab):
			m.onSentence = !m.onSentence && len(m.comp.Selection()) > 0
			m.pick = min(m.pick, max(0, len(m.comp.Selection())-1))
		case m.onSentence:
			m = m.updateSentence(msg)
		default:
			m = m.updateBlocks(msg)
		}
	}
	return m, nil
}

func (m AlbumModel) updateBlocks(msg tea.KeyMsg) AlbumModel {
	keys := tui.DefaultKeyMap
	blocks := m.comp.Blocks()
	if len(blocks) == 0 {
		return m
	}

	switch {
	case key.Matches(msg, keys.Up):
		m.block = max(0, m.block-1)
		m.tile = min(m.tile, max(0, len(blocks[m.block].Pictograms)-1))
	case key.Matches(msg, keys.Down):
		m.block = min(len(blocks)-1, m.block+1)
		m.tile = min(m.tile, max(0, len(blocks[m.block].Pictograms)-1))
	case key.Matches(msg, keys.Left):
		m.tile = max(0, m.tile-1)
	case key.Matches(msg, keys.Right):
		m.tile = min(max(0, len(blocks[m.block].Pictograms)-1), m.tile+1)
	case key.Matches(msg, keys.Enter):
		if pictograms := blocks[m.block].Pictograms; m.tile < len(pictograms) {
			m.comp.Select(pictograms[m.tile])
		}
	}
	return m
}

func (m AlbumModel) updateSentence(msg tea.KeyMsg) AlbumModel {
	keys := tui.DefaultKeyMap
	n := len(m.comp.Selection())

	switch {
	case key.Matches(msg, keys.Left):
		m.pick = max(0, m.pick-1)
	case key.Matches(msg, keys.Right):
		m.pick = min(max(0, n-1), m.pick+1)
	case key.Matches(msg, keys.Deselect), key.Matches(msg, keys.Enter):
		// The index always comes from the current sequence.
		if m.pick < n {
			m.comp.Deselect(m.pick)
			n--
		}
		m.pick = min(m.pick, max(0, n-1))
		if n == 0 {
			m.onSentence = false
		}
	}
	return m
}

// View renders the album view.
func (m AlbumModel) View() string {
	var b strings.Builder

	audio := tui.AudioOff
	if m.comp.AudioEnabled() {
		audio = tui.AudioOn
	}
	b.WriteString(tui.TitleStyle.Render("Album "+m.folder) + "   " + audio)
	b.WriteString("\n")
	if img := m.ImageURL(); img != "" {
		b.WriteString(tui.DimStyle.Render("Image: " + img))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.comp.Phase() {
	case composer.PhaseLoading:
		b.WriteString(fmt.Sprintf("%s Loading album...", m.spinner.View()))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render("Esc: Back"))

	case composer.PhaseFailed:
		b.WriteString(tui.ErrorStyle.Render(apierr.Describe(m.comp.Err())))
		b.WriteString("\n\n")
		b.WriteString(tui.DimStyle.Render("Esc: Back"))

	default:
		b.WriteString(m.renderSentence())
		b.WriteString("\n")
		for i, block := range m.comp.Blocks() {
			b.WriteString(m.renderBlock(i, block))
			b.WriteString("\n")
		}
		footer := "↑↓←→: Move    Enter: Pick    Tab: Sentence    s: Speak    a: Audio    x: Clear    Esc: Back"
		if m.onSentence {
			footer = "←→: Move    d: Remove    Tab: Pictograms    s: Speak    x: Clear    Esc: Back"
		}
		b.WriteString(tui.DimStyle.Render(footer))
	}

	return tui.BoxStyle.Render(b.String())
}

func (m AlbumModel) renderSentence() string {
	selection := m.comp.Selection()
	if len(selection) == 0 {
		return tui.SentenceStyle.Render(tui.DimStyle.Render("Pick pictograms to build a sentence."))
	}
	tiles := make([]string, len(selection))
	for i, u := range selection {
		style := tui.TileStyle
		if m.onSentence && i == m.pick {
			style = tui.FocusedTileStyle
		}
		tiles[i] = style.Render(composer.WordFor(u))
	}
	return tui.SentenceStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
}

func (m AlbumModel) renderBlock(i int, block composer.Block) string {
	story := block.Story
	if !m.onSentence && i == m.block {
		story = tui.SelectedStyle.Render(story)
	}
	if len(block.Pictograms) == 0 {
		return story + "\n" + tui.DimStyle.Render("(no pictograms)") + "\n"
	}
	tiles := make([]string, len(block.Pictograms))
	for j, u := range block.Pictograms {
		style := tui.TileStyle
		if !m.onSentence && i == m.block && j == m.tile {
			style = tui.FocusedTileStyle
		}
		tiles[j] = style.Render(composer.WordFor(u))
	}
	return story + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, tiles...)
}

package tui

import "github.com/pictoria-app/pictoria/internal/route"

// Location is one entry of the navigation history.
type Location struct {
	Path string
	// ImageHint is the preview image passed along when navigating to an album
	// right after it was created.
	ImageHint string
}

// Model holds the state shared by every screen: terminal size, quit
// confirmation and navigation history.
type Model struct {
	Width        int
	Height       int
	CtrlCPending bool

	history []Location
}

// NewModel creates a Model positioned at the landing path.
func NewModel() *Model {
	return &Model{history: []Location{{Path: route.PathLanding}}}
}

// Current returns the location being shown.
func (m *Model) Current() Location {
	return m.history[len(m.history)-1]
}

// Navigate pushes loc onto the history.
func (m *Model) Navigate(loc Location) {
	m.history = append(m.history, loc)
}

// Replace swaps the current location, as a redirect does.
func (m *Model) Replace(loc Location) {
	m.history[len(m.history)-1] = loc
}

// Back pops the current location. With nothing to go back to it lands on
// the landing path.
func (m *Model) Back() {
	if len(m.history) > 1 {
		m.history = m.history[:len(m.history)-1]
		return
	}
	m.history[0] = Location{Path: route.PathLanding}
}

// Reset drops the history and starts over at loc.
func (m *Model) Reset(loc Location) {
	m.history = []Location{loc}
}

// Depth returns the number of history entries.
func (m *Model) Depth() int {
	return len(m.history)
}

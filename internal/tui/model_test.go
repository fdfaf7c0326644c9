package tui

import (
	"testing"

	"github.com/pictoria-app/pictoria/internal/route"
)

func TestModelHistory(t *testing.T) {
	m := NewModel()
	if got := m.Current().Path; got != route.PathLanding {
		t.Fatalf("start: got %q", got)
	}

	m.Navigate(Location{Path: route.PathGallery})
	m.Navigate(Location{Path: route.AlbumPath("a"), ImageHint: "img"})
	if m.Depth() != 3 || m.Current().ImageHint != "img" {
		t.Fatalf("after navigate: depth %d, %+v", m.Depth(), m.Current())
	}

	m.Replace(Location{Path: route.PathLanding})
	if m.Depth() != 3 || m.Current().Path != route.PathLanding {
		t.Errorf("replace: depth %d, %+v", m.Depth(), m.Current())
	}

	m.Back()
	if got := m.Current().Path; got != route.PathGallery {
		t.Errorf("back: got %q", got)
	}
}

func TestModelBackAtRoot(t *testing.T) {
	m := NewModel()
	m.Reset(Location{Path: route.PathLogin})

	m.Back()

	if m.Depth() != 1 || m.Current().Path != route.PathLanding {
		t.Errorf("got depth %d at %q", m.Depth(), m.Current().Path)
	}
}

func TestModelReset(t *testing.T) {
	m := NewModel()
	m.Navigate(Location{Path: route.PathGallery})
	m.Navigate(Location{Path: route.AlbumPath("x")})

	m.Reset(Location{Path: route.PathLogin})

	if m.Depth() != 1 || m.Current().Path != route.PathLogin {
		t.Errorf("got depth %d at %q", m.Depth(), m.Current().Path)
	}
}

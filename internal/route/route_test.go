package route

import (
	"testing"

	"github.com/pictoria-app/pictoria/internal/session"
)

var (
	notHydrated = session.State{}
	loggedOut   = session.State{Hydrated: true}
	loggedIn    = session.State{Hydrated: true, Credential: "tok"}
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		state      session.State
		path       string
		want       Screen
		wantPath   string
		redirected bool
		folder     string
	}{
		{"logged out login", loggedOut, "/login", ScreenLogin, "/login", false, ""},
		{"logged out landing", loggedOut, "/", ScreenLogin, "/login", true, ""},
		{"logged out album", loggedOut, "/albums/xyz", ScreenLogin, "/login", true, ""},
		{"logged out gallery", loggedOut, "/internal-gallery", ScreenLogin, "/login", true, ""},
		{"logged out unknown", loggedOut, "/nope", ScreenLogin, "/login", true, ""},

		{"logged in landing", loggedIn, "/", ScreenLanding, "/", false, ""},
		{"logged in gallery", loggedIn, "/internal-gallery", ScreenGallery, "/internal-gallery", false, ""},
		{"logged in album", loggedIn, "/albums/abc", ScreenAlbum, "/albums/abc", false, "abc"},
		{"logged in escaped album", loggedIn, "/albums/caf%C3%A9", ScreenAlbum, "/albums/caf%C3%A9", false, "café"},
		{"logged in login", loggedIn, "/login", ScreenLanding, "/", true, ""},
		{"logged in unknown", loggedIn, "/settings", ScreenLanding, "/", true, ""},
		{"logged in album without folder", loggedIn, "/albums/", ScreenLanding, "/", true, ""},
		{"logged in nested album path", loggedIn, "/albums/a/b", ScreenLanding, "/", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.state, tt.path)
			if got.Suspended {
				t.Fatal("hydrated state must not suspend")
			}
			if got.Screen != tt.want {
				t.Errorf("Screen: got %v, want %v", got.Screen, tt.want)
			}
			if got.Path != tt.wantPath {
				t.Errorf("Path: got %q, want %q", got.Path, tt.wantPath)
			}
			if got.Redirected != tt.redirected {
				t.Errorf("Redirected: got %v, want %v", got.Redirected, tt.redirected)
			}
			if got.Folder != tt.folder {
				t.Errorf("Folder: got %q, want %q", got.Folder, tt.folder)
			}
		})
	}
}

func TestResolveSuspendsBeforeHydration(t *testing.T) {
	for _, path := range []string{"/", "/login", "/albums/x", "/internal-gallery", "/junk"} {
		got := Resolve(notHydrated, path)
		if !got.Suspended || got.Screen != ScreenNone {
			t.Errorf("Resolve(%q) before hydration: got %+v", path, got)
		}
	}
	// A credential installed without hydration still renders nothing.
	if got := Resolve(session.State{Credential: "tok"}, "/"); !got.Suspended {
		t.Errorf("expected suspension, got %+v", got)
	}
}

func TestResolveIgnoresHistory(t *testing.T) {
	// Same inputs, same answer, regardless of what was resolved before.
	first := Resolve(loggedIn, "/unknown")
	Resolve(loggedIn, "/albums/a")
	Resolve(loggedOut, "/login")
	second := Resolve(loggedIn, "/unknown")
	if first != second {
		t.Errorf("Resolve depends on history: %+v vs %+v", first, second)
	}
}

func TestAlbumPathRoundTrip(t *testing.T) {
	folder := "maçã azul"
	got := Resolve(loggedIn, AlbumPath(folder))
	if got.Screen != ScreenAlbum || got.Folder != folder {
		t.Errorf("round trip: got %+v", got)
	}
}

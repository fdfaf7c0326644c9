// Package route decides which screen a path may show for a given session.
// Resolve is a pure function of the session snapshot and the requested path;
// navigation history never influences it.
package route

import (
	"net/url"
	"strings"

	"github.com/pictoria-app/pictoria/internal/session"
)

// Navigation paths.
const (
	PathLogin   = "/login"
	PathLanding = "/"
	PathGallery = "/internal-gallery"

	albumPrefix = "/albums/"
)

// Screen identifies what the UI renders for a resolved path.
type Screen int

const (
	ScreenNone Screen = iota // nothing rendered (not hydrated)
	ScreenLogin
	ScreenLanding
	ScreenAlbum
	ScreenGallery
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenLanding:
		return "landing"
	case ScreenAlbum:
		return "album"
	case ScreenGallery:
		return "gallery"
	default:
		return "none"
	}
}

// Decision is the outcome of resolving a requested path.
type Decision struct {
	// Suspended is true before hydration: render nothing, decide nothing.
	Suspended bool
	// Path is the path actually shown. It differs from the request when
	// Redirected is true.
	Path       string
	Redirected bool
	Screen     Screen
	// Folder is the album identifier for ScreenAlbum.
	Folder string
}

// AlbumPath returns the navigation path for an album.
func AlbumPath(folder string) string {
	return albumPrefix + url.PathEscape(folder)
}

// Resolve maps a requested path to the screen the session permits.
func Resolve(state session.State, requested string) Decision {
	if !state.Hydrated {
		return Decision{Suspended: true}
	}

	screen, folder := match(requested)

	if !state.LoggedIn() {
		if screen == ScreenLogin {
			return Decision{Path: PathLogin, Screen: ScreenLogin}
		}
		return redirect(PathLogin, ScreenLogin)
	}

	switch screen {
	case ScreenLanding, ScreenGallery:
		return Decision{Path: requested, Screen: screen}
	case ScreenAlbum:
		return Decision{Path: AlbumPath(folder), Screen: ScreenAlbum, Folder: folder}
	default:
		// Login screen and unknown paths both land on the landing screen.
		return redirect(PathLanding, ScreenLanding)
	}
}

func redirect(path string, screen Screen) Decision {
	return Decision{Path: path, Redirected: true, Screen: screen}
}

// match classifies a path without looking at the session.
func match(path string) (Screen, string) {
	switch path {
	case PathLogin:
		return ScreenLogin, ""
	case PathLanding:
		return ScreenLanding, ""
	case PathGallery:
		return ScreenGallery, ""
	}

	if rest, ok := strings.CutPrefix(path, albumPrefix); ok {
		if rest == "" || strings.Contains(rest, "/") {
			return ScreenNone, ""
		}
		folder, err := url.PathUnescape(rest)
		if err != nil || folder == "" {
			return ScreenNone, ""
		}
		return ScreenAlbum, folder
	}

	return ScreenNone, ""
}

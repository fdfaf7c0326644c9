package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pictoria-app/pictoria/internal/album"
	"github.com/pictoria-app/pictoria/internal/tui"
)

// Results of superseded requests are dropped: the command yields a nil
// message, which Bubble Tea ignores.

// ListAlbumsCmd fetches the album list.
func ListAlbumsCmd(loader *album.Loader, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		albums, err := loader.ListAlbums(ctx)
		if errors.Is(err, album.ErrSuperseded) {
			return nil
		}
		return tui.AlbumsLoadedMsg{Albums: albums, Err: err}
	}
}

// GetAlbumCmd fetches one album.
func GetAlbumCmd(loader *album.Loader, folder string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		detail, err := loader.GetAlbum(ctx, folder)
		if errors.Is(err, album.ErrSuperseded) {
			return nil
		}
		return tui.AlbumLoadedMsg{Folder: folder, Detail: detail, Err: err}
	}
}

// UploadCmd reads the image at path and uploads it.
func UploadCmd(loader *album.Loader, path string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return tui.UploadedMsg{Err: fmt.Errorf("reading %s: %w", path, err)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		created, err := loader.UploadAlbum(ctx, filepath.Base(path), data)
		if errors.Is(err, album.ErrSuperseded) {
			return nil
		}
		return tui.UploadedMsg{Album: created, Err: err}
	}
}

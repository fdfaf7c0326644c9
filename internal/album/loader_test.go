package album

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/session"
	"github.com/pictoria-app/pictoria/internal/transport"
)

type doerFunc func(ctx context.Context, r transport.Request) (*http.Response, error)

func (f doerFunc) Do(ctx context.Context, r transport.Request) (*http.Response, error) {
	return f(ctx, r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestLoader(t *testing.T, handler http.Handler) (*Loader, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := session.NewStore(srv.URL, session.NewMemoryStore("tok"), srv.Client(), nil)
	require.NoError(t, store.Hydrate())
	client := transport.New(srv.URL, store, srv.Client(), nil)
	return New(client, nil), store
}

func TestListAlbums(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/albums", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"folder_name":"a1","image_url":"http://img/a1.png"},{"folder_name":"a2","image_url":""}]`)
	}))

	assert.Equal(t, PhaseIdle, loader.ListState().Phase)

	albums, err := loader.ListAlbums(context.Background())
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, Summary{FolderName: "a1", ImageURL: "http://img/a1.png"}, albums[0])

	state := loader.ListState()
	assert.Equal(t, PhaseSucceeded, state.Phase)
	assert.Equal(t, albums, state.Value)
}

func TestListAlbumsEmptyIsSuccess(t *testing.T) {
	for _, body := range []string{`[]`, `null`} {
		t.Run(body, func(t *testing.T) {
			loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}))

			albums, err := loader.ListAlbums(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, albums)
			assert.Empty(t, albums)
			assert.Equal(t, PhaseSucceeded, loader.ListState().Phase)
		})
	}
}

func TestListAlbumsFailure(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := loader.ListAlbums(context.Background())
	var loadErr *apierr.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, http.StatusInternalServerError, loadErr.Status)

	state := loader.ListState()
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.ErrorIs(t, state.Err, err)
}

func TestGetAlbum(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/albums/caf%C3%A9", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{
			"image_url": "http://img/cafe.png",
			"story": ["O gato bebe leite.", "Fim."],
			"pictograms": [["http://p/gato.png", "http://p/leite.png"]]
		}`)
	}))

	detail, err := loader.GetAlbum(context.Background(), "café")
	require.NoError(t, err)
	assert.Equal(t, "http://img/cafe.png", detail.ImageURL)
	assert.Equal(t, []string{"O gato bebe leite.", "Fim."}, detail.Stories)
	require.Len(t, detail.PictogramGroups, 2)
	assert.Equal(t, []string{"http://p/gato.png", "http://p/leite.png"}, detail.PictogramGroups[0])
	assert.NotNil(t, detail.PictogramGroups[1])
	assert.Empty(t, detail.PictogramGroups[1])

	assert.Equal(t, PhaseSucceeded, loader.AlbumState("café").Phase)
}

func TestGetAlbumNotFound(t *testing.T) {
	loader, _ := newTestLoader(t, http.NotFoundHandler())

	_, err := loader.GetAlbum(context.Background(), "missing")
	assert.ErrorIs(t, err, apierr.ErrNotFound)
	assert.Equal(t, "Album not found.", apierr.Describe(err))
	assert.Equal(t, PhaseFailed, loader.AlbumState("missing").Phase)
}

func TestGetAlbumUnauthorizedLogsOut(t *testing.T) {
	loader, store := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := loader.GetAlbum(context.Background(), "x")
	var loadErr *apierr.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, http.StatusUnauthorized, loadErr.Status)
	assert.False(t, store.State().LoggedIn())
}

func TestGetAlbumLatestWins(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	loader := New(doerFunc(func(ctx context.Context, r transport.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-release
			return jsonResponse(http.StatusOK, `{"story":["old"],"pictograms":[[]]}`), nil
		}
		return jsonResponse(http.StatusOK, `{"story":["new"],"pictograms":[[]]}`), nil
	}), nil)

	first := make(chan error, 1)
	go func() {
		_, err := loader.GetAlbum(context.Background(), "a")
		first <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, PhaseInFlight, loader.AlbumState("a").Phase)

	// R2 resolves before R1.
	detail, err := loader.GetAlbum(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, detail.Stories)

	close(release)
	assert.ErrorIs(t, <-first, ErrSuperseded)

	state := loader.AlbumState("a")
	assert.Equal(t, PhaseSucceeded, state.Phase)
	assert.Equal(t, []string{"new"}, state.Value.Stories)
}

func TestGetAlbumKeysAreIndependent(t *testing.T) {
	release := make(chan struct{})
	loader := New(doerFunc(func(ctx context.Context, r transport.Request) (*http.Response, error) {
		if r.Path == "/albums/slow" {
			<-release
		}
		return jsonResponse(http.StatusOK, `{"story":["`+strings.TrimPrefix(r.Path, "/albums/")+`"]}`), nil
	}), nil)

	slow := make(chan error, 1)
	go func() {
		_, err := loader.GetAlbum(context.Background(), "slow")
		slow <- err
	}()
	require.Eventually(t, func() bool { return loader.AlbumState("slow").Phase == PhaseInFlight }, time.Second, time.Millisecond)

	_, err := loader.GetAlbum(context.Background(), "fast")
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-slow)
	assert.Equal(t, []string{"slow"}, loader.AlbumState("slow").Value.Stories)
	assert.Equal(t, []string{"fast"}, loader.AlbumState("fast").Value.Stories)
}

func TestForgetDropsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	loader := New(doerFunc(func(ctx context.Context, r transport.Request) (*http.Response, error) {
		<-release
		return jsonResponse(http.StatusOK, `{"story":["late"]}`), nil
	}), nil)

	done := make(chan error, 1)
	go func() {
		_, err := loader.GetAlbum(context.Background(), "a")
		done <- err
	}()
	require.Eventually(t, func() bool { return loader.AlbumState("a").Phase == PhaseInFlight }, time.Second, time.Millisecond)

	loader.Forget("a")
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, PhaseIdle, loader.AlbumState("a").Phase)
}

func TestUploadAlbum(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))

		file, header, err := r.FormFile(UploadField)
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		got, _ := io.ReadAll(file)
		assert.Equal(t, png, got)
		assert.Equal(t, "desenho.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"f-123","image_url":"http://img/f-123.png"}`)
	}))

	created, err := loader.UploadAlbum(context.Background(), "desenho.png", png)
	require.NoError(t, err)
	assert.Equal(t, Summary{FolderName: "f-123", ImageURL: "http://img/f-123.png"}, created)
	assert.Equal(t, PhaseSucceeded, loader.UploadState().Phase)
}

func TestUploadAlbumFailureKeepsServerText(t *testing.T) {
	loader, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, "unsupported image")
	}))

	_, err := loader.UploadAlbum(context.Background(), "x.txt", []byte("text"))
	var uploadErr *apierr.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "unsupported image", uploadErr.Text)
	assert.Equal(t, "Upload error: unsupported image", apierr.Describe(err))
	assert.Equal(t, PhaseFailed, loader.UploadState().Phase)
}

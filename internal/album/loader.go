package album

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/log"
	"github.com/pictoria-app/pictoria/internal/transport"
)

// UploadField is the multipart form field carrying the image.
const UploadField = "file"

// Doer sends authorized requests. *transport.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, r transport.Request) (*http.Response, error)
}

// Loader fetches albums and uploads images. For each logical key (the list,
// one album, the upload) only the latest request commits; a result arriving
// after a newer request for the same key is discarded and its caller gets
// ErrSuperseded.
type Loader struct {
	client Doer
	logger *log.Logger

	lists   *Tracker[[]Summary]
	details *Tracker[Detail]
	uploads *Tracker[Summary]
}

// New creates a Loader. A nil logger discards events.
func New(client Doer, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Loader{
		client:  client,
		logger:  logger,
		lists:   NewTracker[[]Summary](),
		details: NewTracker[Detail](),
		uploads: NewTracker[Summary](),
	}
}

// ListAlbums fetches the user's albums. An empty list is a success.
func (l *Loader) ListAlbums(ctx context.Context) ([]Summary, error) {
	tk := l.lists.Begin(keyList)
	albums, err := l.fetchList(ctx)
	if !l.lists.Resolve(tk, albums, err) {
		return nil, ErrSuperseded
	}
	l.logLoad("", err, logData{"albums": len(albums)})
	return albums, err
}

// GetAlbum fetches one album. A 404 yields apierr.ErrNotFound.
func (l *Loader) GetAlbum(ctx context.Context, folder string) (Detail, error) {
	tk := l.details.Begin(albumKey(folder))
	detail, err := l.fetchAlbum(ctx, folder)
	if !l.details.Resolve(tk, detail, err) {
		return Detail{}, ErrSuperseded
	}
	l.logLoad(folder, err, logData{"stories": len(detail.Stories)})
	return detail, err
}

// UploadAlbum sends an image as multipart form data and returns the created
// album. On failure the server's raw text is kept in *apierr.UploadError.
func (l *Loader) UploadAlbum(ctx context.Context, filename string, data []byte) (Summary, error) {
	tk := l.uploads.Begin(keyUpload)
	start := time.Now()
	created, err := l.upload(ctx, filename, data)
	if !l.uploads.Resolve(tk, created, err) {
		return Summary{}, ErrSuperseded
	}
	if err == nil {
		_ = l.logger.Append(log.LogEvent{
			Event:      log.EventUploadCompleted,
			Folder:     created.FolderName,
			DurationMs: time.Since(start).Milliseconds(),
			Data:       logData{"bytes": len(data)},
		})
	}
	return created, err
}

// ListState returns the committed state of the album list.
func (l *Loader) ListState() Load[[]Summary] {
	return l.lists.Get(keyList)
}

// AlbumState returns the committed state of one album.
func (l *Loader) AlbumState(folder string) Load[Detail] {
	return l.details.Get(albumKey(folder))
}

// UploadState returns the committed state of the last upload.
func (l *Loader) UploadState() Load[Summary] {
	return l.uploads.Get(keyUpload)
}

// Forget returns an album to idle and drops any result still in flight for
// it, as when the screen showing it is left.
func (l *Loader) Forget(folder string) {
	l.details.Reset(albumKey(folder))
}

type logData = map[string]interface{}

func (l *Loader) logLoad(folder string, err error, data logData) {
	event := log.LogEvent{Event: log.EventAlbumLoaded, Folder: folder, Data: data}
	if err != nil {
		event.Event = log.EventAlbumLoadFailed
		event.Error = err.Error()
		event.Data = nil
	}
	_ = l.logger.Append(event)
}

func (l *Loader) fetchList(ctx context.Context) ([]Summary, error) {
	resp, err := l.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/albums"})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		drain(resp.Body)
		return nil, &apierr.LoadError{Status: resp.StatusCode}
	}

	var albums []Summary
	if err := json.NewDecoder(resp.Body).Decode(&albums); err != nil {
		return nil, &apierr.LoadError{Status: resp.StatusCode, Err: fmt.Errorf("decoding album list: %w", err)}
	}
	if albums == nil {
		albums = []Summary{}
	}
	return albums, nil
}

func (l *Loader) fetchAlbum(ctx context.Context, folder string) (Detail, error) {
	resp, err := l.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/albums/" + url.PathEscape(folder),
	})
	if err != nil {
		return Detail{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		drain(resp.Body)
		return Detail{}, fmt.Errorf("album %q: %w", folder, apierr.ErrNotFound)
	case !success(resp.StatusCode):
		drain(resp.Body)
		return Detail{}, &apierr.LoadError{Status: resp.StatusCode}
	}

	var detail Detail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return Detail{}, &apierr.LoadError{Status: resp.StatusCode, Err: fmt.Errorf("decoding album: %w", err)}
	}
	return detail.normalize(), nil
}

func (l *Loader) upload(ctx context.Context, filename string, data []byte) (Summary, error) {
	body, contentType, err := encodeUpload(filename, data)
	if err != nil {
		return Summary{}, err
	}

	resp, err := l.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/albums",
		Header: http.Header{transport.HeaderContentType: {contentType}},
		Body:   body,
		Binary: true,
	})
	if err != nil {
		return Summary{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("reading upload response: %w", err)
	}
	if !success(resp.StatusCode) {
		return Summary{}, &apierr.UploadError{Status: resp.StatusCode, Text: string(raw)}
	}

	var created uploadResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		return Summary{}, &apierr.UploadError{Status: resp.StatusCode, Text: string(raw)}
	}
	return Summary{FolderName: created.ID, ImageURL: created.ImageURL}, nil
}

// encodeUpload builds the multipart body. The part's content type is sniffed
// from the data so servers that check the image type accept it.
func encodeUpload(filename string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadField, filename))
	h.Set("Content-Type", http.DetectContentType(data))

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating upload part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("writing upload part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing upload body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64<<10))
}

// Package transport sends requests to the pictoria API on behalf of the
// signed-in user.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/log"
)

// Header names set by the client.
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderRequestID     = "X-Request-ID"
)

// ContentTypeJSON is the default body encoding.
const ContentTypeJSON = "application/json"

// Session is the part of the session store the transport depends on.
// session.Store satisfies it.
type Session interface {
	Credential() string
	Logout() error
}

// Request describes one call to the API.
type Request struct {
	Method string
	Path   string // joined to the base URL, e.g. "/albums"
	Header http.Header
	Body   io.Reader

	// Binary marks Body as already encoded by the caller (multipart, raw
	// bytes). Content-Type is then left exactly as the caller set it.
	Binary bool
}

// Client wraps an http.Client with the session credential. It never retries,
// never caches and never changes the request method.
type Client struct {
	baseURL string
	http    *http.Client
	session Session
	logger  *log.Logger
}

// New creates a Client for baseURL. A nil client uses http.DefaultClient; a
// nil logger discards events.
func New(baseURL string, session Session, client *http.Client, logger *log.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
		session: session,
		logger:  logger,
	}
}

// URL returns the absolute URL for path.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Do sends r. A 401 response logs the session out before Do returns; the
// response itself is handed back unchanged and the caller decides what to
// show. Network failures are returned as *apierr.TransportError.
func (c *Client) Do(ctx context.Context, r Request) (*http.Response, error) {
	url := c.URL(r.Path)
	req, err := http.NewRequestWithContext(ctx, r.Method, url, r.Body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if credential := c.session.Credential(); credential != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+credential)
	}
	if !r.Binary && req.Header.Get(HeaderContentType) == "" {
		req.Header.Set(HeaderContentType, ContentTypeJSON)
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	requestID := req.Header.Get(HeaderRequestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		_ = c.logger.Append(log.LogEvent{
			Event:      log.EventRequestFailed,
			Method:     req.Method,
			Path:       r.Path,
			RequestID:  requestID,
			Error:      err.Error(),
			DurationMs: elapsed,
		})
		return nil, &apierr.TransportError{Method: req.Method, URL: url, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		event := log.LogEvent{
			Event:     log.EventSessionInvalidated,
			Method:    req.Method,
			Path:      r.Path,
			Status:    resp.StatusCode,
			RequestID: requestID,
		}
		if err := c.session.Logout(); err != nil {
			event.Error = err.Error()
		}
		_ = c.logger.Append(event)
	}

	_ = c.logger.Append(log.LogEvent{
		Event:      log.EventRequestCompleted,
		Method:     req.Method,
		Path:       r.Path,
		Status:     resp.StatusCode,
		RequestID:  requestID,
		DurationMs: elapsed,
	})
	return resp, nil
}

// Package apierr defines the error taxonomy shared by the session, transport
// and album packages. Every failure is reported to the screen that asked for
// the operation; nothing here retries.
package apierr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested album does not exist.
var ErrNotFound = errors.New("album not found")

// AuthError reports a rejected login or registration (non-2xx status).
type AuthError struct {
	Op     string // "login" | "register"
	Status int
	Body   string // raw server text, may be empty
}

func (e *AuthError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s failed (%d): %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s failed (%d)", e.Op, e.Status)
}

// TransportError wraps a network or connectivity failure. The request never
// produced an HTTP response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// LoadError reports a non-success status other than 404 while loading data.
type LoadError struct {
	Status int
	Err    error // decode failure, if any
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("load failed (status %d)", e.Status)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// UploadError carries the raw server text of a failed upload so the caller
// can display it as-is.
type UploadError struct {
	Status int
	Text   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (%d): %s", e.Status, e.Text)
}

// Describe renders err as the single line of user-visible text a screen shows.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	var transportErr *TransportError
	var loadErr *LoadError
	var uploadErr *UploadError

	switch {
	case errors.Is(err, ErrNotFound):
		return "Album not found."
	case errors.As(err, &authErr):
		if authErr.Op == "register" && authErr.Body != "" {
			return authErr.Body
		}
		return fmt.Sprintf("Login failed (%d)", authErr.Status)
	case errors.As(err, &transportErr):
		return fmt.Sprintf("Network error: %v", transportErr.Err)
	case errors.As(err, &loadErr):
		return fmt.Sprintf("Status %d", loadErr.Status)
	case errors.As(err, &uploadErr):
		return "Upload error: " + uploadErr.Text
	default:
		return err.Error()
	}
}

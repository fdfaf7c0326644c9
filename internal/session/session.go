package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/log"
)

// maxErrorBody caps how much of a failed response is kept for display.
const maxErrorBody = 4096

// Store is the only writer of the session State. Every other component reads
// it through State or Credential, or observes it through Subscribe.
type Store struct {
	baseURL string
	client  *http.Client
	creds   CredentialStore
	logger  *log.Logger

	// persistMu serializes credential changes so the persisted copy and
	// state.Credential always move together.
	persistMu sync.Mutex

	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int

	hydrateOnce sync.Once
	hydrateErr  error
}

// NewStore creates a Store for the API at baseURL, persisting through creds.
// A nil client uses http.DefaultClient; a nil logger discards events.
func NewStore(baseURL string, creds CredentialStore, client *http.Client, logger *log.Logger) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		creds:     creds,
		logger:    logger,
		listeners: make(map[int]func(State)),
	}
}

// State returns the current session snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Credential returns the current credential, or "" when logged out.
func (s *Store) Credential() string {
	return s.State().Credential
}

// Subscribe registers fn to be called after every state transition. fn runs
// synchronously on the goroutine that caused the transition, before the
// mutating call returns, so it must not call back into Login or Logout.
// The returned func unregisters fn.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn to the state under lock and notifies listeners when the
// state changed.
func (s *Store) update(fn func(*State)) State {
	s.mu.Lock()
	prev := s.state
	fn(&s.state)
	next := s.state
	var listeners []func(State)
	if next != prev {
		listeners = make([]func(State), 0, len(s.listeners))
		for _, l := range s.listeners {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

// Hydrate installs the persisted credential, if any, and marks the session
// hydrated. It runs at most once; later calls return the first result.
// A read failure still completes hydration, logged out.
func (s *Store) Hydrate() error {
	s.hydrateOnce.Do(func() {
		s.persistMu.Lock()
		defer s.persistMu.Unlock()

		credential, err := s.creds.Read()
		if err != nil {
			s.hydrateErr = fmt.Errorf("reading persisted credential: %w", err)
			credential = ""
		}

		s.update(func(st *State) {
			st.Credential = credential
			st.Hydrated = true
		})

		event := log.LogEvent{
			Event: log.EventHydrated,
			Data:  map[string]interface{}{"logged_in": credential != ""},
		}
		if s.hydrateErr != nil {
			event.Error = s.hydrateErr.Error()
		}
		_ = s.logger.Append(event)
	})
	return s.hydrateErr
}

// Login exchanges identifier and secret for a credential, persists it and
// installs it into the session. A rejected login returns *apierr.AuthError;
// nothing is retried.
func (s *Store) Login(ctx context.Context, identifier, secret string) (string, error) {
	form := url.Values{}
	form.Set("username", identifier)
	form.Set("password", secret)

	endpoint := s.baseURL + "/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logFailure(log.EventLoginFailed, 0, err)
		return "", &apierr.TransportError{Method: http.MethodPost, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		authErr := &apierr.AuthError{Op: "login", Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
		s.logFailure(log.EventLoginFailed, resp.StatusCode, authErr)
		return "", authErr
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("login response has no access_token")
	}

	s.persistMu.Lock()
	if err := s.creds.Write(body.AccessToken); err != nil {
		s.persistMu.Unlock()
		return "", fmt.Errorf("persisting credential: %w", err)
	}
	s.update(func(st *State) {
		st.Credential = body.AccessToken
	})
	s.persistMu.Unlock()

	_ = s.logger.Append(log.LogEvent{Event: log.EventLoginSucceeded, Status: resp.StatusCode})
	return body.AccessToken, nil
}

// Register creates an account. It does not log in.
func (s *Store) Register(ctx context.Context, email, secret string) error {
	payload, err := json.Marshal(registerRequest{Email: email, Password: secret})
	if err != nil {
		return fmt.Errorf("encoding register request: %w", err)
	}

	endpoint := s.baseURL + "/auth/register"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &apierr.TransportError{Method: http.MethodPost, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apierr.AuthError{Op: "register", Status: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = s.logger.Append(log.LogEvent{Event: log.EventRegistered, Status: resp.StatusCode})
	return nil
}

// Logout clears the credential and its persisted copy. Calling it while
// logged out is a no-op. The session is logged out even when clearing the
// persisted copy fails; the error reports the stale copy.
func (s *Store) Logout() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	var had bool
	s.update(func(st *State) {
		had = st.Credential != ""
		st.Credential = ""
	})

	if err := s.creds.Clear(); err != nil {
		return fmt.Errorf("clearing persisted credential: %w", err)
	}
	if had {
		_ = s.logger.Append(log.LogEvent{Event: log.EventLogout})
	}
	return nil
}

func (s *Store) logFailure(event string, status int, err error) {
	_ = s.logger.Append(log.LogEvent{Event: event, Status: status, Error: err.Error()})
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pictoria-app/pictoria/internal/apierr"
)

func newTestStore(t *testing.T, handler http.HandlerFunc, creds CredentialStore) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStore(srv.URL, creds, srv.Client(), nil), srv
}

func TestHydrateRunsOnce(t *testing.T) {
	creds := NewMemoryStore("persisted")
	store := NewStore("http://unused", creds, nil, nil)

	assert.False(t, store.State().Hydrated)

	require.NoError(t, store.Hydrate())
	assert.Equal(t, State{Credential: "persisted", Hydrated: true}, store.State())

	// A second hydrate must not re-read storage.
	require.NoError(t, creds.Write("changed"))
	require.NoError(t, store.Hydrate())
	assert.Equal(t, "persisted", store.Credential())
}

func TestHydrateWithoutCredential(t *testing.T) {
	store := NewStore("http://unused", NewMemoryStore(""), nil, nil)
	require.NoError(t, store.Hydrate())
	assert.Equal(t, State{Hydrated: true}, store.State())
}

func TestHydrateReadErrorCompletesLoggedOut(t *testing.T) {
	creds := NewMemoryStore("x")
	creds.Fail = errors.New("disk gone")
	store := NewStore("http://unused", creds, nil, nil)

	err := store.Hydrate()
	require.Error(t, err)
	assert.Equal(t, State{Hydrated: true}, store.State())
	assert.Equal(t, err, store.Hydrate(), "later calls return the first result")
}

func TestLoginSuccessPersistsAndNotifies(t *testing.T) {
	creds := NewMemoryStore("")
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "ana@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "s3cret", r.PostForm.Get("password"))
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	}, creds)
	require.NoError(t, store.Hydrate())

	var seen []State
	unsubscribe := store.Subscribe(func(s State) { seen = append(seen, s) })
	defer unsubscribe()

	credential, err := store.Login(context.Background(), "ana@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", credential)
	assert.Equal(t, "tok-1", store.Credential())

	persisted, err := creds.Read()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", persisted)

	require.Len(t, seen, 1)
	assert.Equal(t, State{Credential: "tok-1", Hydrated: true}, seen[0])
}

func TestLoginRejected(t *testing.T) {
	creds := NewMemoryStore("")
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Incorrect username or password"}`, http.StatusUnauthorized)
	}, creds)
	require.NoError(t, store.Hydrate())

	_, err := store.Login(context.Background(), "ana@example.com", "wrong")

	var authErr *apierr.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, "login", authErr.Op)
	assert.False(t, store.State().LoggedIn())
	assert.False(t, creds.Stored())
}

func TestLoginNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := NewStore(url, NewMemoryStore(""), nil, nil)
	_, err := store.Login(context.Background(), "a", "b")

	var transportErr *apierr.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodPost, transportErr.Method)
}

func TestLoginPersistFailureKeepsLoggedOut(t *testing.T) {
	creds := NewMemoryStore("")
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"access_token":"tok"}`)
	}, creds)
	creds.Fail = errors.New("read-only")

	_, err := store.Login(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Empty(t, store.Credential())
}

func TestLogoutClearsAndIsIdempotent(t *testing.T) {
	creds := NewMemoryStore("tok")
	store := NewStore("http://unused", creds, nil, nil)
	require.NoError(t, store.Hydrate())

	notified := 0
	store.Subscribe(func(State) { notified++ })

	require.NoError(t, store.Logout())
	assert.Empty(t, store.Credential())
	assert.False(t, creds.Stored())
	assert.Equal(t, 1, notified)

	require.NoError(t, store.Logout())
	assert.Equal(t, 1, notified, "second logout is a no-op")
}

// gatedStore blocks Write until release is closed.
type gatedStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Write(credential string) error {
	close(g.entered)
	<-g.release
	return g.MemoryStore.Write(credential)
}

func TestLogoutDuringLoginPersistKeepsStateConsistent(t *testing.T) {
	creds := &gatedStore{
		MemoryStore: NewMemoryStore(""),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"access_token":"new"}`)
	}, creds)
	require.NoError(t, store.Hydrate())

	loginDone := make(chan error, 1)
	go func() {
		_, err := store.Login(context.Background(), "a", "b")
		loginDone <- err
	}()
	<-creds.entered

	// A late 401 from an older request logs out while the write is pending.
	logoutDone := make(chan error, 1)
	go func() { logoutDone <- store.Logout() }()

	select {
	case <-logoutDone:
		t.Fatal("logout ran between persisting and installing the credential")
	case <-time.After(50 * time.Millisecond):
	}

	close(creds.release)
	require.NoError(t, <-loginDone)
	require.NoError(t, <-logoutDone)

	assert.Empty(t, store.Credential())
	assert.False(t, creds.Stored())
}

func TestLogoutReportsClearFailure(t *testing.T) {
	creds := NewMemoryStore("tok")
	store := NewStore("http://unused", creds, nil, nil)
	require.NoError(t, store.Hydrate())
	creds.Fail = errors.New("read-only")

	err := store.Logout()

	require.Error(t, err)
	assert.Empty(t, store.Credential(), "the session is cleared even if the copy is not")
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store := NewStore("http://unused", NewMemoryStore("tok"), nil, nil)
	notified := 0
	unsubscribe := store.Subscribe(func(State) { notified++ })
	unsubscribe()

	require.NoError(t, store.Hydrate())
	assert.Zero(t, notified)
}

func TestRegister(t *testing.T) {
	t.Run("success does not log in", func(t *testing.T) {
		store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/register", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var body registerRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, registerRequest{Email: "ana@example.com", Password: "pw"}, body)
			w.WriteHeader(http.StatusCreated)
		}, NewMemoryStore(""))

		require.NoError(t, store.Register(context.Background(), "ana@example.com", "pw"))
		assert.False(t, store.State().LoggedIn())
	})

	t.Run("failure carries server text", func(t *testing.T) {
		store, _ := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "email already registered", http.StatusBadRequest)
		}, NewMemoryStore(""))

		err := store.Register(context.Background(), "ana@example.com", "pw")
		var authErr *apierr.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "email already registered", authErr.Body)
		assert.Equal(t, "email already registered", apierr.Describe(err))
	})
}

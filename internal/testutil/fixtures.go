// Package testutil provides test helper utilities for pictoria tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/pictoria-app/pictoria/internal/devserver"
)

// Secret signs tokens issued by Backend.
const Secret = "testutil-secret"

// Default account created by SignedUp.
const (
	Email    = "cuidador@example.com"
	Password = "segredo123"
)

// TempDir creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// ConfigYAML returns a config.yaml body pointing the client at apiURL with
// speech disabled.
func ConfigYAML(apiURL string) string {
	return "version: 1\n" +
		"api_url: " + apiURL + "\n" +
		"speech:\n  enabled: false\n"
}

// Backend starts a devserver on a random local port and stops it when the
// test finishes.
func Backend(t *testing.T) *devserver.Server {
	t.Helper()
	srv, err := devserver.NewServer(devserver.Options{Secret: Secret})
	if err != nil {
		t.Fatalf("starting backend: %v", err)
	}
	go func() { _ = srv.Start() }()
	t.Cleanup(func() { _ = srv.Stop() })
	return srv
}

// SignedUp starts a Backend with the default account already registered.
func SignedUp(t *testing.T) *devserver.Server {
	t.Helper()
	srv := Backend(t)
	Register(t, srv.URL(), Email, Password)
	return srv
}

// Register creates an account on the API at baseURL.
func Register(t *testing.T, baseURL, email, password string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(baseURL+"/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
}

// Token logs in on the API at baseURL and returns the access token.
func Token(t *testing.T, baseURL, email, password string) string {
	t.Helper()
	resp, err := http.PostForm(baseURL+"/auth/login", url.Values{"username": {email}, "password": {password}})
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	defer resp.Body.Close()
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.AccessToken == "" {
		t.Fatalf("login %s: status %d, err %v", email, resp.StatusCode, err)
	}
	return out.AccessToken
}

// PNG returns a small valid PNG image.
func PNG() []byte {
	return bytes.Clone(devserver.PixelPNG)
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/log"
	"github.com/pictoria-app/pictoria/internal/testutil"
)

// execute runs the CLI with args against the config in dir, feeding stdin.
func execute(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()

	emailFlag = ""
	logLimit = 20
	speakDryRun = false
	initAPIURL, initBackend, initForce = "", "", false
	devserverAddr = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--config-dir="+dir))
	err := rootCmd.Execute()
	return out.String(), err
}

func clientDir(t *testing.T, apiURL, extra string) string {
	t.Helper()
	return testutil.TempDir(t, map[string]string{
		"config.yaml": testutil.ConfigYAML(apiURL) + extra,
	})
}

func account() string {
	return testutil.Email + "\n" + testutil.Password + "\n"
}

func TestLoginStatusLogout(t *testing.T) {
	srv := testutil.SignedUp(t)
	dir := clientDir(t, srv.URL(), "")

	out, err := execute(t, dir, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	out, err = execute(t, dir, account(), "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as "+testutil.Email+".")

	out, err = execute(t, dir, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as "+testutil.Email+".")
	assert.Contains(t, out, "Credential expires")

	out, err = execute(t, dir, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	out, err = execute(t, dir, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")
}

func TestLoginRejected(t *testing.T) {
	srv := testutil.SignedUp(t)
	dir := clientDir(t, srv.URL(), "")

	_, err := execute(t, dir, "wrong-password\n", "login", "--email", testutil.Email)
	require.Error(t, err)
	assert.Equal(t, "Login failed (401)", err.Error())
	var authErr *apierr.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 401, authErr.Status)

	out, err := execute(t, dir, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")
}

func TestRegisterDoesNotLogIn(t *testing.T) {
	srv := testutil.Backend(t)
	dir := clientDir(t, srv.URL(), "")

	out, err := execute(t, dir, "outra-senha\n", "register", "--email", "novo@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created.")

	out, err = execute(t, dir, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	_, err = execute(t, dir, "outra-senha\n", "register", "--email", "novo@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestAlbumCommandsRequireLogin(t *testing.T) {
	srv := testutil.SignedUp(t)
	dir := clientDir(t, srv.URL(), "")

	for _, args := range [][]string{{"albums"}, {"album", "x"}, {"upload", "x.png"}} {
		_, err := execute(t, dir, "", args...)
		assert.ErrorIs(t, err, errNotLoggedIn, "%v", args)
	}
}

func TestUploadListAndShow(t *testing.T) {
	srv := testutil.SignedUp(t)
	dir := clientDir(t, srv.URL(), "")
	image := filepath.Join(t.TempDir(), "praia.png")
	require.NoError(t, os.WriteFile(image, testutil.PNG(), 0644))

	_, err := execute(t, dir, account(), "login")
	require.NoError(t, err)

	out, err := execute(t, dir, "", "albums")
	require.NoError(t, err)
	assert.Contains(t, out, "No albums yet.")

	out, err = execute(t, dir, "", "upload", image)
	require.NoError(t, err)
	require.Contains(t, out, "Created album ")
	folder := strings.Fields(strings.SplitN(out, "Created album ", 2)[1])[0]

	out, err = execute(t, dir, "", "albums")
	require.NoError(t, err)
	assert.Contains(t, out, folder)
	assert.Contains(t, out, "1 album(s).")

	out, err = execute(t, dir, "", "album", folder)
	require.NoError(t, err)
	assert.Contains(t, out, "Album "+folder)
	assert.Contains(t, out, "1. ")

	_, err = execute(t, dir, "", "album", "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, "Album not found.", err.Error())
	assert.ErrorIs(t, err, apierr.ErrNotFound)
}

func TestUploadRejectsNonImage(t *testing.T) {
	srv := testutil.SignedUp(t)
	dir := clientDir(t, srv.URL(), "")
	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("just text"), 0644))

	_, err := execute(t, dir, account(), "login")
	require.NoError(t, err)

	_, err = execute(t, dir, "", "upload", notes)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Upload error: "), err.Error())
}

func TestSQLiteCredentialBackend(t *testing.T) {
	srv := testutil.SignedUp(t)
	dir := clientDir(t, srv.URL(), "credential:\n  backend: sqlite\n")

	_, err := execute(t, dir, account(), "login")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "credential.db"))

	out, err := execute(t, dir, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as "+testutil.Email+".")
}

func TestSpeakDryRun(t *testing.T) {
	dir := clientDir(t, "http://unused", "")

	out, err := execute(t, dir, "", "speak", "--dry-run",
		"http://x/static/pictograms/eu.png",
		"http://x/static/pictograms/p%C3%A3o.png?v=2",
	)
	require.NoError(t, err)
	assert.Equal(t, "eu pão\n", out)
}

func TestSpeakReportsSynthesizerFailure(t *testing.T) {
	// Executable, so it passes the lookup, but its interpreter is missing.
	synth := filepath.Join(t.TempDir(), "broken-synth")
	require.NoError(t, os.WriteFile(synth, []byte("#!/nonexistent/interpreter\n"), 0755))
	dir := testutil.TempDir(t, map[string]string{
		"config.yaml": "version: 1\napi_url: http://unused\nspeech:\n  command: " + synth + "\n",
	})

	out, err := execute(t, dir, "", "speak", "http://x/static/pictograms/eu.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting "+synth)
	assert.Equal(t, "eu\n", out)
}

func TestConfigInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pictoria")

	out, err := execute(t, dir, "", "config", "init", "--api-url", "http://api.example/")
	require.NoError(t, err)
	assert.Contains(t, out, "config.yaml")

	_, err = execute(t, dir, "", "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, err = execute(t, dir, "", "config", "init", "--force", "--credential-backend", "sqlite")
	require.NoError(t, err)

	out, err = execute(t, dir, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "http://localhost:8000")
	assert.Contains(t, out, "sqlite")

	_, err = execute(t, dir, "", "config", "init", "--force", "--credential-backend", "keychain")
	assert.Error(t, err)
}

func TestLogShowsSessionEvents(t *testing.T) {
	srv := testutil.SignedUp(t)
	dir := clientDir(t, srv.URL(), "")

	_, err := execute(t, dir, account(), "login")
	require.NoError(t, err)
	_, err = execute(t, dir, "", "logout")
	require.NoError(t, err)

	out, err := execute(t, dir, "", "log")
	require.NoError(t, err)
	assert.Contains(t, out, log.EventLoginSucceeded)
	assert.Contains(t, out, log.EventLogout)

	out, err = execute(t, dir, "", "log", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestFormatEvent(t *testing.T) {
	ev := log.LogEvent{
		Event:      log.EventRequestFailed,
		Method:     "GET",
		Path:       "/albums",
		Status:     500,
		DurationMs: 12,
		Error:      "boom",
	}
	got := formatEvent(ev)
	for _, want := range []string{"request_failed", "GET /albums", "status=500", "12ms", "error=boom"} {
		assert.Contains(t, got, want)
	}
}

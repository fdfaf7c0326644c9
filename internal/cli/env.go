// env.go builds the services shared by every command from the config
// directory: config, event log, credential store, session and album loader.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pictoria-app/pictoria/internal/album"
	"github.com/pictoria-app/pictoria/internal/apierr"
	"github.com/pictoria-app/pictoria/internal/composer"
	"github.com/pictoria-app/pictoria/internal/config"
	"github.com/pictoria-app/pictoria/internal/log"
	"github.com/pictoria-app/pictoria/internal/session"
	"github.com/pictoria-app/pictoria/internal/speech"
	"github.com/pictoria-app/pictoria/internal/transport"
)

var errNotLoggedIn = errors.New("not logged in; run: pictoria login")

// userError prints as the text a screen would show for err and still unwraps
// to it.
type userError struct{ err error }

func (e userError) Error() string { return apierr.Describe(e.err) }
func (e userError) Unwrap() error { return e.err }

func describe(err error) error {
	if err == nil {
		return nil
	}
	return userError{err: err}
}

type env struct {
	dir     string
	cfg     *config.Config
	logger  *log.Logger
	store   *session.Store
	loader  *album.Loader
	closers []func() error
}

func configDir() (string, error) {
	if configDirFlag != "" {
		return configDirFlag, nil
	}
	return config.Dir()
}

func openEnv() (*env, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	logger, err := log.NewLogger(cfg.LogPath(dir), log.Rotation{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	e := &env{dir: dir, cfg: cfg, logger: logger}
	e.closers = append(e.closers, logger.Close)

	creds, err := e.openCredentials()
	if err != nil {
		e.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Timeout()}
	e.store = session.NewStore(cfg.APIURL, creds, httpClient, logger)
	e.loader = album.New(transport.New(cfg.APIURL, e.store, httpClient, logger), logger)
	return e, nil
}

func (e *env) openCredentials() (session.CredentialStore, error) {
	path := e.cfg.CredentialPath(e.dir)
	switch e.cfg.Credential.Backend {
	case "", config.BackendFile:
		return session.NewFileStore(path), nil
	case config.BackendSQLite:
		if err := os.MkdirAll(e.dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}
		s, err := session.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("opening credential database: %w", err)
		}
		e.closers = append(e.closers, s.Close)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q (want %q or %q)",
			e.cfg.Credential.Backend, config.BackendFile, config.BackendSQLite)
	}
}

// Close releases everything openEnv acquired, newest first.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

// hydrate installs the persisted credential. A credential that cannot be
// read leaves the session logged out with a warning.
func (e *env) hydrate(cmd *cobra.Command) {
	if err := e.store.Hydrate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
}

// requireLogin hydrates and fails unless a credential is present.
func (e *env) requireLogin(cmd *cobra.Command) error {
	e.hydrate(cmd)
	if !e.store.State().LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

func (e *env) voice() composer.Voice {
	v := composer.Voice{
		Lang:  e.cfg.Speech.Language,
		Pitch: e.cfg.Speech.Pitch,
		Rate:  e.cfg.Speech.Rate,
	}
	if v.Lang == "" {
		v.Lang = composer.DefaultVoice.Lang
	}
	if v.Pitch <= 0 {
		v.Pitch = composer.DefaultVoice.Pitch
	}
	if v.Rate <= 0 {
		v.Rate = composer.DefaultVoice.Rate
	}
	return v
}

// speaker returns the configured synthesizer. The error explains a fallback
// to silence; the returned Speaker is always usable.
func (e *env) speaker() (composer.Speaker, error) {
	s, err := speech.Select(e.cfg.Speech.Enabled, e.cfg.Speech.Command, speech.WithLogger(e.logger))
	if err != nil {
		_ = e.logger.Append(log.LogEvent{Event: log.EventSpeechFailed, Error: err.Error()})
	}
	return s, err
}

// prompter reads answers from the command's input. Secrets are read without
// echo when the input is a terminal.
type prompter struct {
	cmd    *cobra.Command
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, reader: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.cmd.OutOrStdout(), label)
	s, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) secret(label string) (string, error) {
	if f, ok := p.cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.cmd.OutOrStdout(), label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return p.line(label)
}

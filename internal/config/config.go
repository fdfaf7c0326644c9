// Package config handles reading and writing the pictoria config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version        int              `yaml:"version"`
	APIURL         string           `yaml:"api_url"`
	RequestTimeout int              `yaml:"request_timeout"` // seconds
	Credential     CredentialConfig `yaml:"credential"`
	Speech         SpeechConfig     `yaml:"speech"`
	Log            LogConfig        `yaml:"log"`
	DevServer      DevServerConfig  `yaml:"devserver"`
}

// CredentialConfig selects where the session credential is persisted.
type CredentialConfig struct {
	Backend string `yaml:"backend"` // "file" | "sqlite"
	Path    string `yaml:"path"`    // empty = inside the config dir
}

// SpeechConfig controls pictogram playback.
type SpeechConfig struct {
	Enabled  bool    `yaml:"enabled"` // initial audio mode
	Command  string  `yaml:"command"` // e.g. espeak-ng
	Language string  `yaml:"language"`
	Pitch    float64 `yaml:"pitch"`
	Rate     float64 `yaml:"rate"`
}

// LogConfig controls the rotating event log.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DevServerConfig holds settings for the local stub backend.
type DevServerConfig struct {
	Addr   string `yaml:"addr"`
	Secret string `yaml:"secret"` // HMAC key for issued tokens
}

const configFile = "config.yaml"

// Credential backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// EnvAPIURL overrides api_url when set.
const EnvAPIURL = "PICTORIA_API_URL"

// Dir returns the default config directory (<user config dir>/pictoria).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(base, "pictoria"), nil
}

// ReadConfig reads config.yaml from dir.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// LoadConfig reads config.yaml from dir, falling back to defaults when the file
// does not exist, and applies environment overrides.
func LoadConfig(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// WriteConfig writes cfg to config.yaml in dir.
// Creates dir if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dir, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// CredentialPath resolves the credential file relative to dir.
func (c *Config) CredentialPath(dir string) string {
	if c.Credential.Path != "" {
		return c.Credential.Path
	}
	if c.Credential.Backend == BackendSQLite {
		return filepath.Join(dir, "credential.db")
	}
	return filepath.Join(dir, "credential.yaml")
}

// LogPath resolves the log file relative to dir.
func (c *Config) LogPath(dir string) string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(dir, "pictoria.log")
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:        1,
		APIURL:         "http://localhost:8000",
		RequestTimeout: 120, // story generation on upload is slow
		Credential: CredentialConfig{
			Backend: BackendFile,
		},
		Speech: SpeechConfig{
			Enabled:  true,
			Command:  "espeak-ng",
			Language: "pt-BR",
			Pitch:    1.0,
			Rate:     0.8,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		DevServer: DevServerConfig{
			Addr:   "127.0.0.1:8000",
			Secret: "pictoria-dev-secret",
		},
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.APIURL = "https://api.example.com"
	cfg.Credential.Backend = BackendSQLite
	cfg.Speech.Rate = 1.2

	if err := WriteConfig(tmpDir, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if loaded.APIURL != "https://api.example.com" {
		t.Errorf("APIURL: got %q", loaded.APIURL)
	}
	if loaded.Credential.Backend != BackendSQLite {
		t.Errorf("Credential.Backend: got %q, want sqlite", loaded.Credential.Backend)
	}
	if loaded.Speech.Rate != 1.2 {
		t.Errorf("Speech.Rate: got %v, want 1.2", loaded.Speech.Rate)
	}
}

func TestDefaultConfigSpeech(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Speech.Language != "pt-BR" || cfg.Speech.Pitch != 1.0 || cfg.Speech.Rate != 0.8 {
		t.Errorf("default speech: got %+v", cfg.Speech)
	}
	if !cfg.Speech.Enabled {
		t.Error("audio mode should start enabled")
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	partial := "api_url: http://10.0.0.2:9000/\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(partial), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.APIURL != "http://10.0.0.2:9000" {
		t.Errorf("APIURL should be trimmed, got %q", cfg.APIURL)
	}
	if cfg.Credential.Backend != BackendFile {
		t.Errorf("Credential.Backend: got %q, want default file", cfg.Credential.Backend)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://env.example")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.APIURL != "http://env.example" {
		t.Errorf("env override not applied, got %q", cfg.APIURL)
	}
}

func TestReadConfigMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("api_url: [unterminated"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadConfig(tmpDir); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestPathsAndTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.CredentialPath("/c"); got != filepath.Join("/c", "credential.yaml") {
		t.Errorf("file credential path: got %q", got)
	}
	cfg.Credential.Backend = BackendSQLite
	if got := cfg.CredentialPath("/c"); got != filepath.Join("/c", "credential.db") {
		t.Errorf("sqlite credential path: got %q", got)
	}
	if got := cfg.LogPath("/c"); got != filepath.Join("/c", "pictoria.log") {
		t.Errorf("log path: got %q", got)
	}

	cfg.RequestTimeout = 0
	if cfg.Timeout() != 60*time.Second {
		t.Errorf("zero timeout should fall back to 60s, got %v", cfg.Timeout())
	}
}

package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// CredentialKey is the single well-known key the credential is stored under.
const CredentialKey = "token"

// CredentialStore persists one string credential. An absent key means
// logged out: Read returns ("", nil) and Clear on an absent key is a no-op.
type CredentialStore interface {
	Read() (string, error)
	Write(credential string) error
	Clear() error
}

// FileStore keeps the credential in a small YAML key/value file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a FileStore backed by path. The file is created on
// first Write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Read returns the stored credential, or "" if none is stored.
func (f *FileStore) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	return values[CredentialKey], nil
}

// Write stores credential, replacing any previous value.
func (f *FileStore) Write(credential string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[CredentialKey] = credential
	return f.save(values)
}

// Clear removes the credential key. Other keys in the file are kept.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[CredentialKey]; !ok {
		return nil
	}
	delete(values, CredentialKey)
	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing credential file: %w", err)
		}
		return nil
	}
	return f.save(values)
}

func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading credential file: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing credential file: %w", err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

func (f *FileStore) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshalling credential file: %w", err)
	}
	// Token grants account access; keep it owner-readable only.
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	return nil
}

// MemoryStore is an in-process CredentialStore, used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	value string
	set   bool

	// Fail, when non-nil, is returned from every operation.
	Fail error
}

// NewMemoryStore returns a MemoryStore pre-seeded with credential
// (pass "" for an empty store).
func NewMemoryStore(credential string) *MemoryStore {
	return &MemoryStore{value: credential, set: credential != ""}
}

func (m *MemoryStore) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", m.Fail
	}
	return m.value, nil
}

func (m *MemoryStore) Write(credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.value, m.set = credential, true
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.value, m.set = "", false
	return nil
}

// Stored reports whether a credential is currently persisted.
func (m *MemoryStore) Stored() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set
}

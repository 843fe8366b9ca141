package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File defines a public type used by goSession APIs.
//
// File persists the key/value namespace as a single JSON document with 0600
// permissions. Writes replace the file atomically via a rename so a crashed
// process never leaves a half-written document behind.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile describes the newfile operation and its observable behavior.
//
// NewFile may return an error when input validation, dependency calls, or security checks fail.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("storage: file path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}
	return &File{path: path}, nil
}

// Get describes the get operation and its observable behavior.
//
// A missing file or an unparseable document reads as absent, never as an
// error: stale on-disk state must degrade to "no session".
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return nil, false, nil
	}
	value, ok := values[key]
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Set describes the set operation and its observable behavior.
//
// Set may return an error when input validation, dependency calls, or security checks fail.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		values = make(map[string][]byte)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	values[key] = stored
	return f.save(values)
}

// Delete describes the delete operation and its observable behavior.
//
// Delete is idempotent; deleting from a missing or corrupt file is not an error.
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return f.save(make(map[string][]byte))
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

func (f *File) load() (map[string][]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]byte), nil
		}
		return nil, err
	}
	values := make(map[string][]byte)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (f *File) save(values map[string][]byte) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("storage: encode document: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("storage: write document: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("storage: replace document: %w", err)
	}
	return nil
}

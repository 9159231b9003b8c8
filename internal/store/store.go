// Package store persists whole JSON documents at fixed paths. Every mutation
// is read file → mutate in memory → write file back; a per-file mutex makes
// the dashboard process a single writer so concurrent requests cannot clobber
// each other's changes. Files are pretty-printed with 2-space indent so they
// stay hand-editable.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a handle on one JSON document. Handles for the same path share a
// lock, so it is safe to construct them independently per request.
type File struct {
	path string
	mu   *sync.Mutex
}

var (
	locksMu sync.Mutex
	locks   = map[string]*sync.Mutex{}
)

func lockFor(path string) *sync.Mutex {
	locksMu.Lock()
	defer locksMu.Unlock()
	if mu, ok := locks[path]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	locks[path] = mu
	return mu
}

// Open returns a handle for the document at path. The file need not exist.
func Open(path string) *File {
	return &File{path: path, mu: lockFor(path)}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the document into v. A missing or unparsable file leaves v
// untouched and reports the underlying error; callers that have a sensible
// empty default should ignore it (the stores are self-healing on read).
func (f *File) Load(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked(v)
}

func (f *File) loadLocked(v any) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", f.path, err)
	}
	return nil
}

// Save writes the document, creating parent directories as needed.
func (f *File) Save(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked(v)
}

func (f *File) saveLocked(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(f.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}

// Update performs one whole-document read-modify-write under the file lock.
// The document is loaded into v (load errors are swallowed, leaving v at the
// caller's default), mutate runs, and the result is written back unless
// mutate fails.
func (f *File) Update(v any, mutate func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_ = f.loadLocked(v)
	if err := mutate(); err != nil {
		return err
	}
	return f.saveLocked(v)
}

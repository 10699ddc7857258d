package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store reads and writes the tracker's JSON datasets. Every artifact is a
// whole file, written atomically so collaborators syncing the data directory
// never observe partial output.
type Store struct {
	mu  sync.Mutex
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the location of a dataset file inside the data directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteJSON marshals v with two-space indentation and renames it into place.
func (s *Store) WriteJSON(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := s.Path(name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// ReadList loads a JSON array dataset. Missing or malformed files come back
// empty so a fresh checkout starts from nothing.
func ReadList[T any](s *Store, name string) []T {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// ReadObject loads a JSON object dataset, reporting whether it was present
// and well formed.
func ReadObject[T any](s *Store, name string) (T, bool) {
	var out T
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

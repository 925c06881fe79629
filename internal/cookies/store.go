package cookies

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store owns the cookie file handed to yt-dlp. All writes go through Save
// or WriteRaw so readers never observe a half-written file.
//
// The mutex serializes writers within this process only; concurrent writes
// from separate processes are not coordinated.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the cookie file is present and non-empty.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Size() > 0
}

// Load parses the cookie file. An absent file is not an error; it returns
// nil records.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	records, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", s.path, err)
	}
	return records, nil
}

// Save atomically replaces the cookie file with the given records.
func (s *Store) Save(records []Record) error {
	return s.WriteRaw(Marshal(records))
}

// WriteRaw atomically replaces the cookie file with raw Netscape-format
// bytes after validating them. Used when the source bytes should be kept
// verbatim (remote blobs, imported files).
func (s *Store) WriteRaw(data []byte) error {
	if _, err := Parse(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("refusing to write invalid cookie data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cookie file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp cookie file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp cookie file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace cookie file: %w", err)
	}
	return nil
}

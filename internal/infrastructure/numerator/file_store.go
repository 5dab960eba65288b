package numerator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DefaultCounterFile is the default counter file name.
const DefaultCounterFile = "invoice_counter.json"

type counterFile struct {
	Counter int64 `json:"counter"`
}

// FileStore keeps the counter in a small JSON document: {"counter": N}.
// Saves replace the file atomically (temp file + fsync + rename), so a crash
// leaves either the old or the new value on disk, never a torn write.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultCounterFile
	}
	return &FileStore{path: path}
}

// Load reads the counter. A missing file means the allocator was never used.
func (s *FileStore) Load(ctx context.Context) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read counter file: %w", err)
	}

	var doc counterFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, false, fmt.Errorf("decode counter file %s: %w", s.path, err)
	}
	return doc.Counter, true, nil
}

// Save overwrites the counter file with value.
func (s *FileStore) Save(ctx context.Context, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(counterFile{Counter: value})
	if err != nil {
		return fmt.Errorf("encode counter: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp counter file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp counter file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp counter file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp counter file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace counter file: %w", err)
	}
	return nil
}

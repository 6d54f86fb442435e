package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store holds one serialized cache document. Load reports ok=false when no
// document has been written yet.
type Store interface {
	Load() (data []byte, ok bool, err error)
	Save(data []byte) error
}

type FileStore struct {
	Path string
}

func (s FileStore) Load() ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	return data, true, nil
}

func (s FileStore) Save(data []byte) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.Path, err)
	}
	return nil
}

// MemoryStore keeps the document in process; used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	Loads int
	Saves int
}

func (s *MemoryStore) Load() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loads++
	if s.data == nil {
		return nil, false, nil
	}
	return append([]byte(nil), s.data...), true, nil
}

func (s *MemoryStore) Save(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

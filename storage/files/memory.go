package files

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MemoryStorage holds blobs in memory. Intended for tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

func (s *MemoryStorage) Save(_ context.Context, path string, content io.Reader) error {
	raw, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.blobs[path] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	raw, ok := s.blobs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *MemoryStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	delete(s.blobs, path)
	s.mu.Unlock()
	return nil
}

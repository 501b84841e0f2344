package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// FileStore persists buffers as one PLM file per fingerprint under a base
// directory. Suitable for single-node deployments.
type FileStore struct {
	dir    string
	mu     sync.RWMutex
	closed bool
}

// NewFileStore opens a file-backed store rooted at dir, creating it if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: empty directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".plm")
}

// Get reads and decodes the buffer stored under key.
func (s *FileStore) Get(ctx context.Context, key string) (*mesh.Buffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return mesh.Decode(data)
}

// Put encodes buf and writes it atomically: a temp file in the same
// directory is renamed over the final path.
func (s *FileStore) Put(ctx context.Context, key string, buf *mesh.Buffer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	path := s.path(key)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, mesh.Encode(buf), 0644); err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("file store: %w", err)
	}
	return nil
}

// Delete removes the file under key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("file store: %w", err)
	}
	return nil
}

// Ping checks that the base directory is still accessible.
func (s *FileStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	return nil
}

// Close marks the store closed. Files already written stay on disk.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*FileStore)(nil)

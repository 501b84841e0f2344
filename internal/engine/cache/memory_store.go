package cache

import (
	"context"
	"sync"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// MemoryStore keeps buffers in process memory. Suitable for tests and
// single-process runs where persistence is not needed.
type MemoryStore struct {
	mu      sync.RWMutex
	buffers map[string]*mesh.Buffer
	closed  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buffers: make(map[string]*mesh.Buffer)}
}

// Get retrieves a copy of the buffer stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) (*mesh.Buffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	buf, ok := s.buffers[key]
	if !ok {
		return nil, ErrNotFound
	}
	return buf.Clone(), nil
}

// Put stores a copy of buf under key.
func (s *MemoryStore) Put(ctx context.Context, key string, buf *mesh.Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.buffers[key] = buf.Clone()
	return nil
}

// Delete removes the value under key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	delete(s.buffers, key)
	return nil
}

// Ping reports whether the store is open.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.buffers = nil
	return nil
}

var _ Store = (*MemoryStore)(nil)

package cache

import (
	"sync"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// DefaultBound is the entry limit used when no bound is configured.
const DefaultBound = 100

// Stats counts cache activity since construction or the last Clear.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// Cache is a bounded table of finished buffers. When an insert pushes the
// size past the bound, the oldest inserted entry is dropped regardless of
// how recently it was read. The cache owns every stored buffer; lookups
// hand out deep copies so callers can mutate freely.
type Cache struct {
	mu      sync.Mutex
	bound   int
	entries map[string]*mesh.Buffer
	order   []string
	stats   Stats
}

// New returns an empty cache holding at most bound entries.
// A bound of zero or less selects DefaultBound.
func New(bound int) *Cache {
	if bound <= 0 {
		bound = DefaultBound
	}
	return &Cache{
		bound:   bound,
		entries: make(map[string]*mesh.Buffer),
	}
}

// Get returns a copy of the buffer stored under key, or false on a miss.
func (c *Cache) Get(key string) (*mesh.Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return buf.Clone(), true
}

// Insert stores buf under key, taking ownership of it, and returns how
// many entries were evicted to make room. Re-inserting an existing key
// replaces the buffer but keeps its original eviction slot.
func (c *Cache) Insert(key string, buf *mesh.Buffer) int {
	if buf == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = buf
		return 0
	}

	c.entries[key] = buf
	c.order = append(c.order, key)
	evicted := 0
	for len(c.order) > c.bound {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.stats.Evictions++
		evicted++
	}
	return evicted
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*mesh.Buffer)
	c.order = nil
	c.stats = Stats{}
}

// Stats returns a snapshot of the activity counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}

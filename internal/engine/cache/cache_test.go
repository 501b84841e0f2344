package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

func testBuffer(seed float32) *mesh.Buffer {
	return &mesh.Buffer{
		Positions: []float32{seed, 0, 0, seed + 1, 0, 0, seed, 1, 0},
		Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		UVs:       []float32{0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
		Bounds: mesh.Bounds{
			Min: [3]float32{seed, 0, 0},
			Max: [3]float32{seed + 1, 1, 0},
		},
	}
}

func TestCacheGetMiss(t *testing.T) {
	c := New(10)

	buf, ok := c.Get("absent")
	assert.False(t, ok)
	assert.Nil(t, buf)
}

func TestCacheInsertGet(t *testing.T) {
	c := New(10)
	c.Insert("a", testBuffer(1))

	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, testBuffer(1), got)

	// The returned copy is independent of the stored entry.
	got.Positions[0] = 99
	again, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Positions[0])
}

func TestCacheEviction(t *testing.T) {
	c := New(100)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0, c.Insert(fmt.Sprintf("key-%d", i), testBuffer(float32(i))))
	}
	assert.Equal(t, 1, c.Insert("key-100", testBuffer(100)))

	assert.Equal(t, 100, c.Len())

	_, ok := c.Get("key-0")
	assert.False(t, ok, "first inserted entry should be evicted")

	for i := 1; i < 101; i++ {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok, "entry %d should survive", i)
	}
}

func TestCacheEvictsByInsertionOrderNotAccess(t *testing.T) {
	c := New(3)
	c.Insert("a", testBuffer(1))
	c.Insert("b", testBuffer(2))
	c.Insert("c", testBuffer(3))

	// Reading "a" must not refresh its eviction slot.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Insert("d", testBuffer(4))

	_, ok = c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestCacheReinsertReplacesInPlace(t *testing.T) {
	c := New(2)
	c.Insert("a", testBuffer(1))
	c.Insert("a", testBuffer(9))

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, float32(9), got.Positions[0], "re-insert should replace the buffer")
	assert.Equal(t, 1, c.Len())

	// The replacement keeps the original slot, so "a" is still oldest.
	c.Insert("b", testBuffer(2))
	c.Insert("c", testBuffer(3))

	_, ok = c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := New(10)
	c.Insert("a", testBuffer(1))
	c.Insert("b", testBuffer(2))

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)

	// Clearing also resets the counters, bar the miss just recorded.
	stats := c.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCacheStats(t *testing.T) {
	c := New(2)
	c.Insert("a", testBuffer(1))
	c.Insert("b", testBuffer(2))
	c.Insert("c", testBuffer(3))

	c.Get("b")
	c.Get("b")
	c.Get("absent")

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions)
	assert.Equal(t, 2, stats.Size)
}

func TestCacheDefaultBound(t *testing.T) {
	c := New(0)
	for i := 0; i < DefaultBound+5; i++ {
		c.Insert(fmt.Sprintf("key-%d", i), testBuffer(float32(i)))
	}
	assert.Equal(t, DefaultBound, c.Len())
}

func TestCacheInsertNil(t *testing.T) {
	c := New(10)
	c.Insert("a", nil)
	assert.Equal(t, 0, c.Len())
}

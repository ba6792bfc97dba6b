package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCache(clock *time.Time) *memoryCache[string, int] {
	c := NewMemoryCache[string, int](nil).(*memoryCache[string, int])
	c.now = func() time.Time { return *clock }
	return c
}

func TestMemoryCache_SetGet(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(&clock)

	c.Set("a", 1, 0)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(&clock)

	c.Set("a", 1, time.Minute)
	c.Set("forever", 2, 0)

	clock = clock.Add(2 * time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entry is evicted on read")

	v, ok := c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c := NewMemoryCache[string, string](nil)
	c.Set("a", "x", 0)
	c.Set("b", "y", 0)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestWithTTL_OverridesTTL(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := newTestCache(&clock)
	c := WithTTL[string, int](inner, time.Second)

	c.Set("a", 1, time.Hour)
	clock = clock.Add(2 * time.Second)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

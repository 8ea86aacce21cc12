// internal/cache/ttl_cache_test.go
package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_GetSet(t *testing.T) {
	c := NewTTLCache(time.Minute, 10)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("key", "value")
	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestTTLCache_Expiry(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	current := base

	c := NewTTLCache(5*time.Minute, 10)
	c.now = func() time.Time { return current }

	c.Set("key", 42)

	current = base.Add(4 * time.Minute)
	_, ok := c.Get("key")
	assert.True(t, ok)

	current = base.Add(6 * time.Minute)
	_, ok = c.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_EvictsAtCapacity(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	current := base

	c := NewTTLCache(time.Hour, 3)
	c.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
		current = current.Add(time.Second)
	}
	assert.Equal(t, 3, c.Len())

	// Full and nothing expired: the entry closest to expiry goes.
	c.Set("key-3", 3)
	assert.Equal(t, 3, c.Len())

	_, ok := c.Get("key-0")
	assert.False(t, ok)
	_, ok = c.Get("key-3")
	assert.True(t, ok)
}

func TestTTLCache_EvictsExpiredFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	current := base

	c := NewTTLCache(time.Minute, 2)
	c.now = func() time.Time { return current }

	c.Set("stale", 1)
	current = base.Add(2 * time.Minute) // "stale" is now expired
	c.Set("fresh", 2)

	c.Set("extra", 3)
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("fresh")
	assert.True(t, ok)
	_, ok = c.Get("extra")
	assert.True(t, ok)
}

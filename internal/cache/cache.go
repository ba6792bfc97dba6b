// Package cache holds fetched pages in memory so repeated lookups of the
// same URL within a run do not hit the external source twice.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/superversivesf/saga-importer/internal/logger"
)

// Cache stores values by key with an optional TTL.
type Cache[K comparable, V any] interface {
	// Set stores a value; a non-positive ttl never expires
	Set(key K, value V, ttl time.Duration)
	// Get returns the value and whether a live entry was found
	Get(key K) (V, bool)
	Delete(key K)
	Clear()
	Len() int
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type memoryCache[K comparable, V any] struct {
	items map[K]entry[V]
	mu    sync.RWMutex
	log   *logger.Logger
	now   func() time.Time
}

// NewMemoryCache creates an in-memory cache. A nil logger uses the global one.
func NewMemoryCache[K comparable, V any](log *logger.Logger) Cache[K, V] {
	if log == nil {
		log = logger.Get()
	}
	return &memoryCache[K, V]{
		items: make(map[K]entry[V]),
		log:   log,
		now:   time.Now,
	}
}

func (c *memoryCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	c.items[key] = entry[V]{value: value, expiresAt: expiresAt}

	c.log.Debug("Item added to cache", map[string]interface{}{
		"key":        fmt.Sprint(key),
		"cache_size": len(c.items),
	})
}

func (c *memoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !found {
		return zero, false
	}
	if !item.expiresAt.IsZero() && c.now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		c.log.Debug("Cache item expired", map[string]interface{}{"key": fmt.Sprint(key)})
		return zero, false
	}
	return item.value, true
}

func (c *memoryCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *memoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	c.items = make(map[K]entry[V])
	c.log.Debug("Cache cleared", map[string]interface{}{"dropped": n})
}

func (c *memoryCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// WithTTL wraps a cache so every Set uses the given TTL.
func WithTTL[K comparable, V any](cache Cache[K, V], ttl time.Duration) Cache[K, V] {
	return &ttlWrapper[K, V]{cache: cache, ttl: ttl}
}

type ttlWrapper[K comparable, V any] struct {
	cache Cache[K, V]
	ttl   time.Duration
}

func (w *ttlWrapper[K, V]) Set(key K, value V, _ time.Duration) { w.cache.Set(key, value, w.ttl) }
func (w *ttlWrapper[K, V]) Get(key K) (V, bool)                { return w.cache.Get(key) }
func (w *ttlWrapper[K, V]) Delete(key K)                       { w.cache.Delete(key) }
func (w *ttlWrapper[K, V]) Clear()                             { w.cache.Clear() }
func (w *ttlWrapper[K, V]) Len() int                           { return w.cache.Len() }

// Package cache provides a bounded, thread-safe least-recently-used cache.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// Cache maps keys to shared values with LRU eviction.
// All methods are safe for concurrent use.
type Cache[K comparable, V any] struct {
	entries  *lru.Cache[K, V]
	capacity int
}

// New creates a cache holding at most capacity entries.
// onEvict, if non-nil, is called for every entry dropped to make room.
func New[K comparable, V any](capacity int, onEvict func(K, V)) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, errors.Errorf("cache capacity must be positive, got %d", capacity)
	}
	entries, err := lru.NewWithEvict[K, V](capacity, onEvict)
	if err != nil {
		return nil, errors.Wrap(err, "creating lru cache")
	}
	return &Cache[K, V]{entries: entries, capacity: capacity}, nil
}

// Get returns the value stored under key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.entries.Get(key)
}

// Add stores value under key unless an entry already exists, and returns the
// resident value. When two writers race on the same key the first one wins and
// both observe the same value.
func (c *Cache[K, V]) Add(key K, value V) V {
	if prev, ok, _ := c.entries.PeekOrAdd(key, value); ok {
		c.entries.Get(key) // refresh recency
		return prev
	}
	return value
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	return c.entries.Len()
}

// Capacity returns the maximum number of entries.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Purge drops all entries. The eviction callback runs for each of them.
func (c *Cache[K, V]) Purge() {
	c.entries.Purge()
}

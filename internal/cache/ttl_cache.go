// Package cache provides a small thread-safe cache with per-entry expiry.
// The API server keeps recent normalization results here, keyed by the
// BLAKE3 request key from core/cas.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
	added   uint64
}

// TTLCache holds at most max entries, each valid for ttl after it was Set.
// When full, the oldest entry is evicted.
type TTLCache[K comparable, V any] struct {
	mu   sync.Mutex
	data map[K]entry[V]
	ttl  time.Duration
	max  int
	seq  uint64
	now  func() time.Time
	hits uint64
	miss uint64
}

// New creates a cache. A max of zero or less means unbounded.
func New[K comparable, V any](ttl time.Duration, max int) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]entry[V]),
		ttl:  ttl,
		max:  max,
		now:  time.Now,
	}
}

// Get returns the value for key if present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok || !c.now().Before(e.expires) {
		if ok {
			delete(c.data, key)
		}
		c.miss++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && c.max > 0 && len(c.data) >= c.max {
		c.evictLocked()
	}
	c.seq++
	c.data[key] = entry[V]{value: value, expires: c.now().Add(c.ttl), added: c.seq}
}

// evictLocked drops expired entries, or the oldest one if none expired.
func (c *TTLCache[K, V]) evictLocked() {
	now := c.now()
	var (
		oldestKey K
		oldest    uint64
		found     bool
	)
	for k, e := range c.data {
		if !now.Before(e.expires) {
			delete(c.data, k)
			continue
		}
		if !found || e.added < oldest {
			oldestKey, oldest, found = k, e.added, true
		}
	}
	if len(c.data) >= c.max && found {
		delete(c.data, oldestKey)
	}
}

// Delete removes key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Invalidate clears all entries.
func (c *TTLCache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]entry[V])
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Stats reports hit and miss counts since creation.
func (c *TTLCache[K, V]) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.miss
}

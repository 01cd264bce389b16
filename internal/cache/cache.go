// Package cache is an in-process TTL cache. Concurrent misses for one key
// share a single fetch, and once an entry expires the first caller refreshes
// it while the others keep getting the stale value for the race window.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is safe for concurrent use.
type Cache[V any] struct {
	ttl     time.Duration
	raceTTL time.Duration

	mu      sync.Mutex
	entries map[string]*entry[V]
	group   singleflight.Group
	now     func() time.Time
}

// New returns a cache whose entries live for ttl. raceTTL is how long a
// stale entry may still be served while it is being refreshed; 0 disables
// stale serving.
func New[V any](ttl, raceTTL time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		raceTTL: raceTTL,
		entries: make(map[string]*entry[V]),
		now:     time.Now,
	}
}

// Fetch returns the cached value for key, calling fetch on a miss. fetch
// errors are returned as is and nothing is cached.
func (c *Cache[V]) Fetch(key string, fetch func() (V, error)) (V, error) {
	c.mu.Lock()
	now := c.now()
	if e, ok := c.entries[key]; ok {
		if now.Before(e.expiresAt) {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}
		if c.raceTTL > 0 && now.Before(e.expiresAt.Add(c.raceTTL)) {
			// overlapping callers see the stale value until the refresh lands
			e.expiresAt = now.Add(c.raceTTL)
		}
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := fetch()
		if err != nil {
			return value, err
		}
		c.Write(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Write stores value under key for the cache TTL.
func (c *Cache[V]) Write(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Delete drops key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

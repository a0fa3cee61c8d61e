// Package ttlcache implements a bounded, expiring keyed map: the ARP
// peer-MAC cache and pending-send queue both need entries to disappear
// after a TTL rather than merely the oldest N kept.
package ttlcache

import (
	"errors"
	"time"
)

// ErrFull is returned by Put when the cache is at capacity and every entry
// is still live (not yet expired).
var ErrFull = errors.New("ttlcache: at capacity")

type entry[V any] struct {
	value   V
	expires time.Time
}

// Cache is a fixed-capacity map from K to V where entries expire after a
// TTL. The zero value is not ready to use; construct with New.
type Cache[K comparable, V any] struct {
	ttl      time.Duration
	now      func() time.Time
	entries  map[K]entry[V]
	capacity int
}

// New returns a Cache holding at most capacity live entries, each expiring
// ttl after it is written. now is called to obtain the current time on
// every Get/Put/Evict, defaulting to time.Now when nil — tests can inject a
// fake clock to make expiry deterministic.
func New[K comparable, V any](capacity int, ttl time.Duration, now func() time.Time) *Cache[K, V] {
	if capacity <= 0 {
		panic("ttlcache: capacity must be > 0")
	}
	if ttl <= 0 {
		panic("ttlcache: ttl must be > 0")
	}
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		ttl:      ttl,
		now:      now,
		entries:  make(map[K]entry[V], capacity),
		capacity: capacity,
	}
}

// Get returns the value stored under k, if present and not expired. An
// expired entry is evicted as a side effect of the lookup.
func (c *Cache[K, V]) Get(k K) (v V, ok bool) {
	e, found := c.entries[k]
	if !found {
		return v, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, k)
		return v, false
	}
	return e.value, true
}

// Put inserts or refreshes the entry for k, resetting its TTL. It returns
// ErrFull if the cache is at capacity and k is not already present, after
// first sweeping expired entries to make room.
func (c *Cache[K, V]) Put(k K, v V) error {
	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.capacity {
		c.evictExpired()
		if len(c.entries) >= c.capacity {
			return ErrFull
		}
	}
	c.entries[k] = entry[V]{value: v, expires: c.now().Add(c.ttl)}
	return nil
}

// Delete removes the entry for k, if any.
func (c *Cache[K, V]) Delete(k K) {
	delete(c.entries, k)
}

// Len returns the number of entries currently stored, including any not
// yet swept after expiring. Callers wanting a live count should call
// EvictExpired first.
func (c *Cache[K, V]) Len() int { return len(c.entries) }

// EvictExpired removes every entry whose TTL has elapsed and returns how
// many were removed. The stack calls this from ARPCacheLen and
// ARPPendingLen, so the counts they report and its cache-size gauges
// cover only live entries.
func (c *Cache[K, V]) EvictExpired() int {
	return c.evictExpired()
}

func (c *Cache[K, V]) evictExpired() int {
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

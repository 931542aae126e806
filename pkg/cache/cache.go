// Package cache provides an in-memory, time-bounded key/value cache.
package cache

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrExpired   = errors.New("cache entry expired")
)

// DefaultCleanupInterval is how often expired entries are swept.
const DefaultCleanupInterval = 5 * time.Minute

// entry is a cached value with its expiry instant.
//
// expiresAt is derived from time.Now, which carries a monotonic clock reading,
// so comparisons against a later time.Now are immune to wall-clock changes.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Option configures a TTLCache.
type Option func(*options)

type options struct {
	now             func() time.Time
	cleanupInterval time.Duration
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCleanupInterval sets how often expired entries are swept. Zero disables the sweeper.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) { o.cleanupInterval = d }
}

// TTLCache is a concurrency-safe cache whose entries expire after a fixed TTL.
type TTLCache[K comparable, V any] struct {
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewTTLCache creates a cache whose entries live for ttl.
func NewTTLCache[K comparable, V any](ttl time.Duration, opts ...Option) *TTLCache[K, V] {
	o := options{
		now:             time.Now,
		cleanupInterval: DefaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &TTLCache[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     o.now,
		stop:    make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go c.cleanup(o.cleanupInterval)
	}

	return c
}

// Get retrieves a value from the cache.
func (c *TTLCache[K, V]) Get(key K) (V, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, exists := c.entries[key]
	if !exists {
		return zero, ErrCacheMiss
	}

	if c.now().After(e.expiresAt) {
		return zero, ErrExpired
	}

	return e.value, nil
}

// Set stores a value under key, replacing any previous value and resetting its TTL.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Delete removes a value from the cache.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// TTL returns the remaining lifetime of key.
func (c *TTLCache[K, V]) TTL(key K) (time.Duration, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists {
		return 0, ErrCacheMiss
	}

	remaining := e.expiresAt.Sub(c.now())
	if remaining < 0 {
		return 0, ErrExpired
	}

	return remaining, nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Purge removes all expired entries and returns how many were dropped.
func (c *TTLCache[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Close stops the background sweeper.
func (c *TTLCache[K, V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanup periodically removes expired entries.
func (c *TTLCache[K, V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Purge()
		case <-c.stop:
			return
		}
	}
}

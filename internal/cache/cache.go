// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Entry represents a cached item with expiration
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// expired reports whether the entry is no longer visible at now.
func (e Entry) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Cache is a thread-safe TTL store keyed by string.
//
// Expiry is evaluated lazily: Get and Has compare the stored deadline with the
// injected clock and drop the entry when it has passed. Sweep removes every
// expired entry at once and only bounds memory; correctness never depends on it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	clock   Clock

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	lastSweep atomic.Int64 // unix nanos
}

// Stats is a point-in-time snapshot of cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(clock Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New creates a cache whose Set uses ttl as the default lifetime.
//
// Parameters:
//   - ttl: default expiration for Set; Put always takes an explicit ttl
//   - opts: optional settings such as WithClock
//
// Thread Safety: safe for concurrent use. No background goroutine is started;
// attach a Sweeper when memory needs to be bounded.
//
// Example:
//
//	seen := cache.New(2*time.Minute, cache.WithClock(clock))
//	seen.Put("fp:42:1700000000", true, 2*time.Minute)
//	if seen.Has("fp:42:1700000000") {
//	    // duplicate
//	}
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		clock:   SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastSweep.Store(c.clock.Now().UnixNano())
	return c
}

// Get retrieves a value by key.
//
// Returns (nil, false) when the key is unknown or its deadline has passed; an
// expired entry is deleted on the way out and counted as a miss and an eviction.
func (c *Cache) Get(key string) (interface{}, bool) {
	now := c.clock.Now()

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.misses.Add(1)
		return nil, false
	}

	if entry.expired(now) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Put may have refreshed it.
		if current, ok := c.entries[key]; ok && current.expired(now) {
			delete(c.entries, key)
			c.evictions.Add(1)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return entry.Data, true
}

// Has reports whether key holds a live entry.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores a value with the default TTL configured at creation.
func (c *Cache) Set(key string, value interface{}) {
	c.Put(key, value, c.ttl)
}

// Put stores a value that expires ttl from now.
// Overwriting an existing key resets its deadline.
func (c *Cache) Put(key string, value interface{}, ttl time.Duration) {
	expiresAt := c.clock.Now().Add(ttl)

	c.mu.Lock()
	c.entries[key] = Entry{Data: value, ExpiresAt: expiresAt}
	c.mu.Unlock()
}

// SetWithTTL is an alias of Put kept for callers written against Cacher.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.Put(key, value, ttl)
}

// Delete removes a specific cache entry by key.
// No-op if the key does not exist.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if ok {
		c.evictions.Add(1)
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	n := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.evictions.Add(n)
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep deletes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.clock.Now()

	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	c.evictions.Add(int64(removed))
	c.lastSweep.Store(now.UnixNano())
	return removed
}

// GetStats returns a snapshot of current cache performance statistics.
func (c *Cache) GetStats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		TotalKeys:   int64(c.Len()),
		LastCleanup: time.Unix(0, c.lastSweep.Load()),
	}
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

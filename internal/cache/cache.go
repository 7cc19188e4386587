// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package cache

import (
	"sync"
	"time"
)

// Entry represents a cached item and the instant it was stored.
type Entry[V any] struct {
	Data     V
	StoredAt time.Time
}

// Cache provides a thread-safe in-memory cache with a freshness window.
//
// An entry is fresh while now - StoredAt < ttl. Stale entries are treated as
// absent by Get and removed lazily; there is no background sweeper, so a
// Cache holds no goroutines and needs no Close.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	ttl     time.Duration
	now     func() time.Time
	stats   Stats
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates a cache whose entries stay fresh for ttl.
//
// Example:
//
//	snapshots := cache.New[*models.RaceDetails](30 * time.Second)
//	snapshots.Set("/ootr/lucky-link-1234", details)
//	if details, ok := snapshots.Get("/ootr/lucky-link-1234"); ok {
//	    // served without a network call
//	}
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[V]{
		entries: make(map[string]Entry[V]),
		ttl:     ttl,
		now:     o.now,
	}
}

// TTL returns the freshness window.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Get retrieves a fresh value by key.
//
// Behavior:
//   - Returns (zero, false) if key doesn't exist
//   - Returns (zero, false) if the entry is stale (entry is deleted)
//   - Returns (data, true) if the entry is fresh
func (c *Cache[V]) Get(key string) (V, bool) {
	entry, ok := c.GetEntry(key)
	return entry.Data, ok
}

// GetEntry is Get but also returns the instant the entry was stored.
func (c *Cache[V]) GetEntry(key string) (Entry[V], bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return Entry[V]{}, false
	}

	if now.Sub(entry.StoredAt) >= c.ttl {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.Evictions++
		c.stats.TotalKeys = int64(len(c.entries))
		return Entry[V]{}, false
	}

	c.stats.Hits++
	return entry, true
}

// Set stores a value stamped with the current time, replacing any
// existing entry for key atomically.
func (c *Cache[V]) Set(key string, value V) time.Time {
	storedAt := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{
		Data:     value,
		StoredAt: storedAt,
	}
	c.stats.TotalKeys = int64(len(c.entries))

	return storedAt
}

// Delete removes a specific cache entry by key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Evictions++
		c.stats.TotalKeys = int64(len(c.entries))
	}
}

// Clear removes all entries from the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Evictions += int64(len(c.entries))
	c.entries = make(map[string]Entry[V])
	c.stats.TotalKeys = 0
}

// Len returns the number of stored entries, fresh or not yet evicted.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of current cache statistics.
func (c *Cache[V]) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache[V]) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

// Package cache provides a thread-safe in-memory TTL cache. It fronts the
// LLM parse client so identical free-text descriptions do not repeatedly
// spend rate-limit budget on the external API.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// Entry is a cached item with its expiration time.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Stats tracks cache hit-rate counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int64
}

// Cache is a TTL cache safe for concurrent use. A background goroutine
// sweeps expired entries for the cache's lifetime.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration

	statsMu sync.Mutex
	stats   Stats
}

const cleanupEvery = 5 * time.Minute

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
	}
	go c.cleanupLoop()
	return c
}

// Key derives a fixed-length cache key from arbitrary text. Hashing keeps
// long free-text descriptions out of the key space.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns the cached value for key, expiring stale entries on read.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.bump(func(s *Stats) { s.Misses++ })
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.bump(func(s *Stats) { s.Misses++; s.Evictions++ })
		return nil, false
	}
	c.bump(func(s *Stats) { s.Hits++ })
	return entry.Data, true
}

// Set stores a value under key with the cache's TTL.
func (c *Cache) Set(key string, data interface{}) {
	c.mu.Lock()
	c.entries[key] = Entry{Data: data, ExpiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Len returns the number of entries, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of the hit-rate counters.
func (c *Cache) Snapshot() Stats {
	keys := int64(c.Len())
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	s := c.stats
	s.Keys = keys
	return s
}

func (c *Cache) bump(f func(*Stats)) {
	c.statsMu.Lock()
	f(&c.stats)
	c.statsMu.Unlock()
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, entry := range c.entries {
			if now.After(entry.ExpiresAt) {
				delete(c.entries, key)
				c.bumpLocked()
			}
		}
		c.mu.Unlock()
	}
}

// bumpLocked records an eviction while holding the entries lock. Stats
// use their own mutex so this does not deadlock.
func (c *Cache) bumpLocked() {
	c.bump(func(s *Stats) { s.Evictions++ })
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// Cache is a key-value store with per-entry TTL. Expired entries are
// invisible to Get and purged opportunistically. The cache is a pure
// accelerator, never a source of truth.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// Key derives a deterministic cache key from request parameters. The key
// is the first 16 hex characters of SHA-256 over the NUL-joined parts.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

type memEntry struct {
	value   []byte
	expires time.Time
}

// MemCache is the in-memory Cache implementation.
type MemCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemCache creates an empty in-memory cache.
func NewMemCache() *MemCache {
	return &MemCache{
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

// Get returns the value for key if present and unexpired. Expired entries
// are evicted on lookup.
func (c *MemCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (c *MemCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memEntry{value: value, expires: c.now().Add(ttl)}
}

// Len reports the number of entries, expired or not.
func (c *MemCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

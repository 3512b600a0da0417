// Package cache provides the advisory TTL key/value store shared by fetchers
// and scorers, with in-memory and Redis-backed kinds.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// SourceKey builds the cache key for a source query:
// src:<source_id>:q:<hash>.
func SourceKey(sourceID, queryFingerprint string) string {
	return fmt.Sprintf("src:%s:q:%s", sourceID, Hash(queryFingerprint))
}

// ScoreKey builds the cache key for a scored candidate:
// score:<identity_key>:job:<hash>.
func ScoreKey(identityKey, jobFingerprint string) string {
	return fmt.Sprintf("score:%s:job:%s", identityKey, Hash(jobFingerprint))
}

// Hash returns the hex sha256 of s.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a capacity-bounded TTL cache with FIFO eviction. Expired entries
// are evicted lazily on read. Safe for concurrent use.
type Memory struct {
	capacity int
	mu       sync.RWMutex
	m        map[string]entry
	ord      []string
	now      func() time.Time
}

// NewMemory builds a memory cache holding up to capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Memory{
		capacity: capacity,
		m:        make(map[string]entry, capacity),
		ord:      make([]string, 0, capacity),
		now:      time.Now,
	}
}

// Get returns the value for key and whether it was present and fresh.
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.Invalidate(context.Background(), key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key for ttl. Zero ttl stores nothing.
func (c *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[key]; !exists {
		if len(c.ord) >= c.capacity {
			old := c.ord[0]
			c.ord = c.ord[1:]
			delete(c.m, old)
		}
		c.ord = append(c.ord, key)
	}
	c.m[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Invalidate removes key if present.
func (c *Memory) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; !ok {
		return
	}
	delete(c.m, key)
	for i, k := range c.ord {
		if k == key {
			c.ord = append(c.ord[:i], c.ord[i+1:]...)
			break
		}
	}
}

package cache

import (
	"context"
	"sync"
	"time"
)

var _ Cache = (*MemoryCache)(nil)

// purgeThreshold matches the original service: once the map grows past
// this many entries, a write sweeps out everything already expired.
const purgeThreshold = 1000

// MemoryCache is a process-local Cache backed by a mutex-guarded map.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithClock(time.Now)
}

func NewMemoryCacheWithClock(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		entries: make(map[Key]Entry),
		now:     now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !entry.ExpiresAt.After(c.now()) {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (c *MemoryCache) Put(ctx context.Context, key Key, entry Entry, ttl time.Duration) error {
	now := c.now()
	entry.ExpiresAt = now.Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) > purgeThreshold {
		c.purgeExpiredLocked(now)
	}
	c.entries[key] = entry
	return nil
}

func (c *MemoryCache) Increment(ctx context.Context, key Key) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !entry.ExpiresAt.After(c.now()) {
		return 0, false, nil
	}
	entry.Count++
	c.entries[key] = entry
	return entry.Count, true, nil
}

// Len reports the number of entries currently held, live or expired.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) purgeExpiredLocked(now time.Time) {
	for key, entry := range c.entries {
		if !entry.ExpiresAt.After(now) {
			delete(c.entries, key)
		}
	}
}

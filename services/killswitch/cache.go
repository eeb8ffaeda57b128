package killswitch

import (
	"context"
	"sync"
	"time"
)

// Cache stores kill-switch flags with a TTL. Implementations must treat
// a miss (expired or never written) as distinct from a cached false.
type Cache interface {
	// Get returns the cached flag and whether the key was present.
	Get(ctx context.Context, key string) (value bool, found bool, err error)

	// Set stores a flag under key for ttl.
	Set(ctx context.Context, key string, value bool, ttl time.Duration) error

	// Invalidate removes a key.
	Invalidate(ctx context.Context, key string) error
}

// memoryEntry represents a single cache entry with TTL
type memoryEntry struct {
	value      bool
	insertedAt time.Time
}

func (e *memoryEntry) isExpired(ttl time.Duration) bool {
	return time.Since(e.insertedAt) > ttl
}

// MemoryCache is an in-memory TTL cache for kill-switch flags.
// Thread-safe implementation using sync.RWMutex
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	hits    uint64
	misses  uint64
}

// NewMemoryCache creates a new MemoryCache with the specified TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (bool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists || entry.isExpired(c.ttl) {
		c.misses++
		if exists {
			delete(c.entries, key)
		}
		return false, false, nil
	}
	c.hits++
	return entry.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value bool, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &memoryEntry{value: value, insertedAt: time.Now()}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Size:   len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

// CleanupExpired removes all expired entries
// Should be called periodically in a background goroutine
func (c *MemoryCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.isExpired(c.ttl) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartCleanupWorker starts a background worker to periodically clean up expired entries
func (c *MemoryCache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}

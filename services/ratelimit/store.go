package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore increments windowed counters. Incr must be atomic per
// key so concurrent requests never read the same slot.
type CounterStore interface {
	// Incr increments the counter at key, arming ttl on first use, and
	// returns the post-increment value.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounterStore is a process-local CounterStore.
// Thread-safe implementation using sync.Mutex
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]*memoryCounter)}
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	counter, exists := s.counters[key]
	if !exists || now.After(counter.expiresAt) {
		counter = &memoryCounter{expiresAt: now.Add(ttl)}
		s.counters[key] = counter
	}
	counter.count++

	// Opportunistic sweep keeps the map from accumulating dead windows.
	if len(s.counters) > 1024 {
		for k, c := range s.counters {
			if now.After(c.expiresAt) {
				delete(s.counters, k)
			}
		}
	}

	return counter.count, nil
}

// RedisCounterStore shares counters across gateway instances.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr failed: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("redis expire failed: %w", err)
		}
	}
	return count, nil
}

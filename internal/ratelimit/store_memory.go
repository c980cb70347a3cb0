package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryCounterStore implements CounterStore with process-local state.
// Counts are not shared across instances, so this is only suitable for
// tests and single-process development.
type InMemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time // zero means no expiry set
}

func NewInMemoryCounterStore() *InMemoryCounterStore {
	return &InMemoryCounterStore{counters: make(map[string]*memoryCounter)}
}

func (s *InMemoryCounterStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters[key]
	if c == nil || (!c.expiresAt.IsZero() && time.Now().After(c.expiresAt)) {
		c = &memoryCounter{}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

func (s *InMemoryCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.counters[key]; c != nil {
		c.expiresAt = time.Now().Add(ttl)
	}
	return nil
}

func (s *InMemoryCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters[key]
	if c == nil {
		return TTLKeyMissing, nil
	}
	if c.expiresAt.IsZero() {
		return TTLNoExpiry, nil
	}
	remaining := time.Until(c.expiresAt)
	if remaining <= 0 {
		return TTLKeyMissing, nil
	}
	return remaining, nil
}

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type counter struct {
	count     int
	expiresAt time.Time
}

// MemoryStore keeps counters in a process-local LRU bounded by key count and
// TTL. A counter expires one window after its last write.
type MemoryStore struct {
	mu     sync.Mutex
	cache  *expirable.LRU[string, counter]
	window time.Duration
	now    func() time.Time
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock replaces the time source used for window expiry
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a store holding at most maxKeys counters
func NewMemoryStore(maxKeys int, window time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		cache:  expirable.NewLRU[string, counter](maxKeys, nil, window),
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Incr increments the counter for key under a single lock so concurrent
// requests for the same key are never lost
func (s *MemoryStore) Incr(_ context.Context, key string) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.cache.Get(key)
	if !ok || !now.Before(c.expiresAt) {
		c = counter{}
	}
	c.count++
	c.expiresAt = now.Add(s.window)
	s.cache.Add(key, c)

	return c.count, c.expiresAt, nil
}

// Len returns the number of keys currently tracked
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Package ratelimit bounds how many requests a client may make per window.
package ratelimit

import (
	"context"
	"time"
)

// Store counts requests per key. Incr adds one to the key's count in the
// current window and returns the new count and when the window ends.
type Store interface {
	Incr(ctx context.Context, key string) (int, time.Time, error)
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter charges requests against a Store and decides whether they may proceed
type Limiter struct {
	store Store
	limit int
}

// NewLimiter creates a limiter allowing limit requests per window of store
func NewLimiter(store Store, limit int) *Limiter {
	return &Limiter{store: store, limit: limit}
}

// Limit returns the number of requests allowed per window
func (l *Limiter) Limit() int {
	return l.limit
}

// CheckAndIncrement counts the request for key and reports whether it is
// within the limit. Every call is charged, including denied ones.
func (l *Limiter) CheckAndIncrement(ctx context.Context, key string) (Decision, error) {
	count, resetAt, err := l.store.Incr(ctx, key)
	if err != nil {
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}, err
	}

	if count > l.limit {
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - count, ResetAt: resetAt}, nil
}

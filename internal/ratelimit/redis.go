package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "rate_limit:generate_plan"

// RedisStore keeps counters in Redis so several processes share one limit
type RedisStore struct {
	redis     *redis.Client
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

// NewRedisStore creates a Redis-backed store. An empty prefix uses the default.
func NewRedisStore(client *redis.Client, window time.Duration, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStore{
		redis:     client,
		window:    window,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Incr increments and refreshes the key's TTL in one transaction
func (s *RedisStore) Incr(ctx context.Context, key string) (int, time.Time, error) {
	redisKey := fmt.Sprintf("%s:%s", s.keyPrefix, key)

	var incrCmd *redis.IntCmd
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incrCmd = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, s.window)
		return nil
	})
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return int(incrCmd.Val()), s.now().Add(s.window), nil
}

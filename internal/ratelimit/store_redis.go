package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implements CounterStore on Redis. This is the production
// implementation; all cross-instance coordination happens through Redis's
// atomic INCR and EXPIRE.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *RedisCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *RedisCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	// go-redis surfaces the redis sentinels -1 (no expiry) and -2 (missing)
	// as raw negative durations, which is exactly the contract CounterStore
	// documents.
	return s.client.TTL(ctx, key).Result()
}

package webhook

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore records processed transaction ids with set-if-absent
// semantics. Like every external store here, calls can fail or time out and
// the caller decides the failure policy.
type IdempotencyStore interface {
	// SetIfAbsent returns true when the key was newly set, false when it
	// already existed.
	SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisIdempotencyStore implements IdempotencyStore with SET NX EX.
type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

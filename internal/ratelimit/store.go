package ratelimit

import (
	"context"
	"time"
)

// TTL sentinels, matching go-redis semantics for the TTL command.
const (
	// TTLNoExpiry: the key exists but carries no TTL. The limiter repairs
	// this by re-arming the window.
	TTLNoExpiry = time.Duration(-1)
	// TTLKeyMissing: the key does not exist.
	TTLKeyMissing = time.Duration(-2)
)

// CounterStore is the external atomic counter the limiter coordinates
// through. Every call is a network operation that can fail, time out, or
// race with other instances; the only atomicity guarantees are the store's
// own INCR/EXPIRE primitives.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining window, or one of the sentinels above.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

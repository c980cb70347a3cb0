// Package ratelimit implements a fixed-window counter against a shared
// external store. Authentication endpoints use it with a fail-open policy:
// if the counter store is down, login must keep working.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"betengine/internal/platform/guard"
	"betengine/internal/platform/metrics"
)

const defaultStoreTimeout = 2 * time.Second

type Limiter struct {
	store        CounterStore
	logger       *slog.Logger
	metrics      *metrics.Metrics
	storeTimeout time.Duration
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(l *Limiter) { l.storeTimeout = d }
}

// New builds a Limiter. store may be nil (counter store not configured), in
// which case every check fails open.
func New(store CounterStore, opts ...Option) *Limiter {
	l := &Limiter{
		store:        store,
		logger:       slog.Default(),
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow runs one fixed-window check. The first increment in a window arms
// the TTL; a counter found without a TTL is repaired by re-arming it, which
// shifts the window boundary slightly but never blocks legitimate traffic
// indefinitely. Malformed keys and store failures fail open.
func (l *Limiter) Allow(ctx context.Context, key string, limit, windowSeconds int) Result {
	if limit < 1 {
		limit = 1
	}
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	if key == "" || l.store == nil {
		return l.failOpen(key, limit, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()

	window := time.Duration(windowSeconds) * time.Second
	var (
		count        int64
		resetSeconds *int
	)
	verdict := guard.Call(ctx, guard.FailOpen, func(ctx context.Context) (guard.Effect, error) {
		var err error
		count, err = l.store.Incr(ctx, key)
		if err != nil {
			return guard.Deny, err
		}

		if count == 1 {
			// This increment opened the window.
			if err := l.store.Expire(ctx, key, window); err != nil {
				return guard.Deny, err
			}
			resetSeconds = intPtr(windowSeconds)
		} else {
			ttl, err := l.store.TTL(ctx, key)
			if err != nil {
				return guard.Deny, err
			}
			switch {
			case ttl == TTLNoExpiry:
				// Counter survived without its TTL (store eviction or
				// restart edge case); repair rather than block forever.
				if err := l.store.Expire(ctx, key, window); err != nil {
					return guard.Deny, err
				}
				resetSeconds = intPtr(windowSeconds)
			case ttl >= 0:
				resetSeconds = intPtr(int(ttl.Round(time.Second) / time.Second))
			}
		}

		if count <= int64(limit) {
			return guard.Allow, nil
		}
		return guard.Deny, nil
	})

	if verdict.Degraded {
		return l.failOpen(key, limit, verdict.Err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:      verdict.Effect == guard.Allow,
		Limit:        limit,
		Remaining:    remaining,
		ResetSeconds: resetSeconds,
	}
}

func (l *Limiter) failOpen(key string, limit int, err error) Result {
	if err != nil {
		l.logger.Warn("rate limit check degraded to allow", "key", key, "error", err)
		if l.metrics != nil {
			l.metrics.RateLimitDegraded.Inc()
		}
	}
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit,
		Degraded:  err != nil,
	}
}

func intPtr(v int) *int { return &v }

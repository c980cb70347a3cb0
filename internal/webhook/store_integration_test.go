//go:build integration

package webhook_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betengine/internal/webhook"
	"betengine/pkg/testutil/containers"
)

func TestRedisIdempotencyStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	store := webhook.NewRedisIdempotencyStore(rc.Client)

	fresh, err := store.SetIfAbsent(ctx, "wh:pay:txn-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	again, err := store.SetIfAbsent(ctx, "wh:pay:txn-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again, "second delivery must see the existing key")

	ttl, err := rc.Client.TTL(ctx, "wh:pay:txn-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

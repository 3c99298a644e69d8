//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	redisadapter "github.com/couchcryptid/stargazer-events/internal/adapter/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSeedLock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lock := redisadapter.NewLock(startRedis(ctx, t), discardLogger())
	t.Cleanup(func() { _ = lock.Close() })
	require.NoError(t, lock.CheckReadiness(ctx))

	release, ok, err := lock.Acquire(ctx, "seed", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.Acquire(ctx, "seed", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	release()
	release()

	release2, ok, err := lock.Acquire(ctx, "seed", 300*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok, "lock is free after release")

	time.Sleep(600 * time.Millisecond)
	release3, ok, err := lock.Acquire(ctx, "seed", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok, "lease expires after its ttl")

	// A stale holder releasing must not free the new holder's lease.
	release2()
	_, ok, err = lock.Acquire(ctx, "seed", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	release3()
}

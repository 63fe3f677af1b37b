//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisCache(t *testing.T) *Cache {
	t.Helper()
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	c := NewFromClient(redis.NewClient(opts))
	require.NoError(t, c.Ping(ctx))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisReadThroughAndBump(t *testing.T) {
	c := newRedisCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for range 3 {
		got, err := Load(ctx, c, "causes", "all", time.Minute, load, nil)
		require.NoError(t, err)
		assert.Equal(t, "value", got)
	}
	assert.Equal(t, 1, calls)

	before, err := c.Version(ctx, "causes")
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx, "causes"))
	after, err := c.Version(ctx, "causes")
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	_, err = Load(ctx, c, "causes", "all", time.Minute, load, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "bump retires the cached entry")
}

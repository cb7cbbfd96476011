package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, now *time.Time) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCacheWithClock(client, func() time.Time { return *now }), server
}

func TestRedisCache_PutGet(t *testing.T) {
	now := time.Date(2022, 5, 10, 9, 15, 0, 0, time.UTC)
	c, _ := newTestRedisCache(t, &now)

	key := Key{Identifier: "user", Endpoint: "/api/ping", Strategy: "sliding"}
	anchor := now.Add(-time.Minute)

	require.NoError(t, c.Put(context.Background(), key, Entry{Anchor: anchor, Count: 3}, time.Minute))

	got, ok, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), got.Count)
	assert.True(t, got.Anchor.Equal(anchor))
	assert.Equal(t, now.Add(time.Minute), got.ExpiresAt)
}

func TestRedisCache_GetMissAfterTTL(t *testing.T) {
	now := time.Date(2022, 5, 10, 9, 15, 0, 0, time.UTC)
	c, server := newTestRedisCache(t, &now)

	key := Key{Identifier: "user", Endpoint: "/api/ping", Strategy: "sliding"}
	require.NoError(t, c.Put(context.Background(), key, Entry{Count: 1}, time.Minute))

	server.FastForward(time.Minute)
	now = now.Add(time.Minute)

	_, ok, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok, "entry must be gone once its ttl has passed")
}

func TestRedisCache_Increment(t *testing.T) {
	now := time.Date(2022, 5, 10, 9, 15, 0, 0, time.UTC)
	c, server := newTestRedisCache(t, &now)

	key := Key{Identifier: "user", Endpoint: "/api/ping", Strategy: "fixed"}

	_, ok, err := c.Increment(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok, "increment on a missing key reports absent")

	require.NoError(t, c.Put(context.Background(), key, Entry{Count: 1}, time.Minute))

	count, ok, err := c.Increment(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), count)

	// Incrementing must not reset the entry's ttl.
	server.FastForward(time.Minute)
	now = now.Add(time.Minute)
	_, ok, err = c.Increment(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_GetMissWhenEmpty(t *testing.T) {
	now := time.Date(2022, 5, 10, 9, 15, 0, 0, time.UTC)
	c, _ := newTestRedisCache(t, &now)

	_, ok, err := c.Get(context.Background(), Key{Identifier: "nobody", Endpoint: "/api/ping", Strategy: "sliding"})
	require.NoError(t, err)
	assert.False(t, ok)
}

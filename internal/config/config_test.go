package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.True(t, cfg.RateLimiter.UseCache)
	assert.False(t, cfg.RateLimiter.FailOpen)
	assert.Equal(t, int64(5), cfg.RateLimiter.PingLimit)
	assert.Equal(t, time.Minute, cfg.RateLimiter.PingWindow)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_TYPE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/events.db")
	t.Setenv("CACHE_TYPE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("USE_CACHE", "false")
	t.Setenv("FAIL_OPEN", "true")
	t.Setenv("PING_LIMIT", "20")
	t.Setenv("PING_WINDOW_SECONDS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, "/tmp/events.db", cfg.Store.SQLitePath)
	assert.Equal(t, "redis", cfg.Cache.Type)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.False(t, cfg.RateLimiter.UseCache)
	assert.True(t, cfg.RateLimiter.FailOpen)
	assert.Equal(t, int64(20), cfg.RateLimiter.PingLimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimiter.PingWindow)
}

func TestLoad_Invalid(t *testing.T) {
	var tests = []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown store", key: "STORE_TYPE", value: "etcd"},
		{name: "unknown cache", key: "CACHE_TYPE", value: "memcached"},
		{name: "bad redis db", key: "REDIS_DB", value: "two"},
		{name: "bad use_cache", key: "USE_CACHE", value: "maybe"},
		{name: "zero ping limit", key: "PING_LIMIT", value: "0"},
		{name: "negative ping window", key: "PING_WINDOW_SECONDS", value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

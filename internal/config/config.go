// Package config centralizes environment-driven configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Cache       CacheConfig
	RateLimiter RateLimiterConfig
}

type ServerConfig struct {
	Port string
}

type StoreConfig struct {
	// Type selects the event store backend: "memory" or "sqlite".
	Type       string
	SQLitePath string
}

type CacheConfig struct {
	// Type selects the counter cache backend: "memory", "redis" or
	// "none".
	Type  string
	Redis RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimiterConfig struct {
	// UseCache enables the counter cache fast path on every check.
	UseCache bool

	// FailOpen admits requests when the event store cannot record
	// them. Defaults to false (fail-closed).
	FailOpen bool

	// PingLimit and PingWindow are the demo endpoint's policy.
	PingLimit  int64
	PingWindow time.Duration
}

func Load() (Config, error) {
	_ = godotenv.Load()

	storeType := getEnv("STORE_TYPE", "memory")
	switch storeType {
	case "memory", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported STORE_TYPE: %s", storeType)
	}

	cacheType := getEnv("CACHE_TYPE", "memory")
	switch cacheType {
	case "memory", "redis", "none":
	default:
		return Config{}, fmt.Errorf("unsupported CACHE_TYPE: %s", cacheType)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	useCache, err := strconv.ParseBool(getEnv("USE_CACHE", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid USE_CACHE: %w", err)
	}

	failOpen, err := strconv.ParseBool(getEnv("FAIL_OPEN", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid FAIL_OPEN: %w", err)
	}

	pingLimit, err := strconv.ParseInt(getEnv("PING_LIMIT", "5"), 10, 64)
	if err != nil || pingLimit <= 0 {
		return Config{}, fmt.Errorf("invalid PING_LIMIT: %s", getEnv("PING_LIMIT", "5"))
	}

	pingWindowSeconds, err := strconv.Atoi(getEnv("PING_WINDOW_SECONDS", "60"))
	if err != nil || pingWindowSeconds <= 0 {
		return Config{}, fmt.Errorf("invalid PING_WINDOW_SECONDS: %s", getEnv("PING_WINDOW_SECONDS", "60"))
	}

	return Config{
		Server: ServerConfig{Port: getEnv("SERVER_PORT", "8080")},
		Store: StoreConfig{
			Type:       storeType,
			SQLitePath: getEnv("SQLITE_PATH", "ratelimiter.db"),
		},
		Cache: CacheConfig{
			Type: cacheType,
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       redisDB,
			},
		},
		RateLimiter: RateLimiterConfig{
			UseCache:   useCache,
			FailOpen:   failOpen,
			PingLimit:  pingLimit,
			PingWindow: time.Duration(pingWindowSeconds) * time.Second,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubhamkhavare/rate-limiter/internal/log"
)

var _ Cache = (*RedisCache)(nil)

// redisEntry is the hash layout of one cached counter.
type redisEntry struct {
	AnchorMillis int64 `redis:"anchor"`
	Count        int64 `redis:"count"`
}

// RedisCache is a Redis-backed Cache. Each key maps to a hash holding
// the window anchor and count, with the entry TTL carried by the key
// itself. It lets several instances share one counter surface without
// touching the decision logic.
type RedisCache struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return NewRedisCacheWithClock(client, time.Now)
}

func NewRedisCacheWithClock(client *redis.Client, now func() time.Time) *RedisCache {
	return &RedisCache{
		client: client,
		now:    now,
	}
}

func (c *RedisCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	k := key.String()

	p := c.client.Pipeline()
	getResult := p.HGetAll(ctx, k)
	ttlResult := p.PTTL(ctx, k)
	if _, err := p.Exec(ctx); err != nil {
		log.Logger().Error("failed to read cache entry", zap.String("key", k), zap.Error(err))
		return Entry{}, false, err
	}

	fields, err := getResult.Result()
	if err != nil || len(fields) == 0 {
		return Entry{}, false, err
	}

	var rec redisEntry
	if err := getResult.Scan(&rec); err != nil {
		log.Logger().Error("failed to scan cache entry", zap.String("key", k), zap.Error(err))
		return Entry{}, false, err
	}

	ttl, err := ttlResult.Result()
	if err != nil || ttl <= 0 {
		// -1 means no expire was set, -2 means the key vanished between
		// the two pipeline commands. Either way the entry is not usable.
		return Entry{}, false, err
	}

	return Entry{
		Anchor:    time.UnixMilli(rec.AnchorMillis),
		Count:     rec.Count,
		ExpiresAt: c.now().Add(ttl),
	}, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key Key, entry Entry, ttl time.Duration) error {
	k := key.String()

	p := c.client.Pipeline()
	p.HSet(ctx, k, "anchor", entry.Anchor.UnixMilli(), "count", entry.Count)
	p.PExpire(ctx, k, ttl)
	if _, err := p.Exec(ctx); err != nil {
		log.Logger().Error("failed to write cache entry", zap.String("key", k), zap.Error(err))
		return err
	}
	return nil
}

func (c *RedisCache) Increment(ctx context.Context, key Key) (int64, bool, error) {
	k := key.String()

	exists, err := c.client.Exists(ctx, k).Result()
	if err != nil {
		log.Logger().Error("failed to probe cache entry", zap.String("key", k), zap.Error(err))
		return 0, false, err
	}
	if exists == 0 {
		return 0, false, nil
	}

	count, err := c.client.HIncrBy(ctx, k, "count", 1).Result()
	if err != nil {
		log.Logger().Error("failed to increment cache entry", zap.String("key", k), zap.Error(err))
		return 0, false, err
	}
	return count, true, nil
}

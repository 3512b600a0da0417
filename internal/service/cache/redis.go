package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// envelope is the serialized form stored externally. ExpiresAt is embedded so
// a reader can reject stale values even if the store's own TTL lags.
type envelope struct {
	ExpiresAt time.Time `json:"expires_at"`
	Payload   []byte    `json:"payload"`
}

// Redis is the external cache kind. All operations fail open: errors are
// logged and reported as misses, never surfaced to callers.
type Redis struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedis builds a Redis-backed cache from a client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, now: time.Now}
}

// NewRedisFromURL dials a Redis cache from a redis:// URL.
func NewRedisFromURL(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedis(redis.NewClient(opt)), nil
}

// Get returns the cached value if present and unexpired.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("cache get failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("cache entry unreadable", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	if c.now().After(env.ExpiresAt) {
		return nil, false
	}
	return env.Payload, true
}

// Put stores value under key for ttl.
func (c *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(envelope{ExpiresAt: c.now().Add(ttl), Payload: value})
	if err != nil {
		slog.Warn("cache marshal failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.Warn("cache put failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Invalidate removes key if present.
func (c *Redis) Invalidate(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		slog.Warn("cache invalidate failed", slog.String("key", key), slog.Any("error", err))
	}
}

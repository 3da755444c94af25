package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
)

// ErrCacheMiss is returned by [Cache.Get] when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Cache wraps the shared Redis client. Keys are namespaced with a colon
// separator ("ratelimit:42", "usage:2026-08-26:7") so the counters of
// different concerns cannot collide.
type Cache struct {
	client *redis.Client
	logger *logger.Logger
}

// NewCache connects to Redis using a redis:// URL and verifies the connection
// with a ping.
func NewCache(ctx context.Context, redisURL string, log *logger.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Err(err).Str("func", "NewCache").Msg("error parsing redis url")
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		log.Err(err).Str("func", "NewCache").Msg("error connecting redis (ping)")
		return nil, fmt.Errorf("connecting redis: %w", err)
	}
	log.Info().Str("func", "NewCache").Msg("connected to redis successfully")

	return &Cache{client: client, logger: log}, nil
}

// NewCacheFromClient wraps an existing client. Used by tests running against
// miniredis.
func NewCacheFromClient(client *redis.Client, log *logger.Logger) *Cache {
	return &Cache{client: client, logger: log}
}

// Set stores value under namespace:key with the given TTL. A zero TTL stores
// the key without expiry.
func (c *Cache) Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	return c.client.Set(ctx, namespace+":"+key, value, ttl).Err()
}

// Get retrieves the string value stored under namespace:key, or
// [ErrCacheMiss].
func (c *Cache) Get(ctx context.Context, namespace, key string) (string, error) {
	value, err := c.client.Get(ctx, namespace+":"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return value, err
}

// Delete removes namespace:key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, namespace, key string) error {
	return c.client.Del(ctx, namespace+":"+key).Err()
}

// GetTTL returns the remaining lifetime of namespace:key.
func (c *Cache) GetTTL(ctx context.Context, namespace, key string) (time.Duration, error) {
	return c.client.TTL(ctx, namespace+":"+key).Result()
}

// IncrWithExpire atomically increments the counter under namespace:key and
// returns the new value. The expiry window starts with the first increment,
// which makes the counter a fixed-window limiter.
func (c *Cache) IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error) {
	countKey := namespace + ":" + key

	count, err := c.client.Incr(ctx, countKey).Result()
	if err != nil {
		return 0, err
	}

	// First increment in this window: arm the TTL.
	if count == 1 {
		_ = c.client.Expire(ctx, countKey, window).Err()
	}

	return count, nil
}

// Health reports whether Redis answers a ping within two seconds.
func (c *Cache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client connections.
func (c *Cache) Close() error {
	return c.client.Close()
}

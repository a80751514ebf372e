// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"clinicore/config"

	"github.com/go-redis/redis/v8"
)

// NewCacheClient builds the Redis client backing the availability cache and
// soft reservations. Callers own the lifecycle; there is no package-level
// client.
func NewCacheClient(cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis (cache): %w", err)
	}
	return client, nil
}

// NewQueueClient builds the Redis client backing the waitlist sorted sets.
func NewQueueClient(cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis (queue): %w", err)
	}
	return client, nil
}

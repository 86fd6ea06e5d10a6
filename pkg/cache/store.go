// Package cache holds short-lived quote data. Redis is used when configured,
// otherwise an in-process map.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New returns a Redis-backed store for redisURL, or a memory store when it is empty
func New(redisURL string) (Store, error) {
	if redisURL == "" {
		return NewMemoryStore(), nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return NewRedisStore(opt), nil
}

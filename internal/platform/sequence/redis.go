package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "intake:seq:"

// RedisAllocator keeps counters as Redis integers advanced with INCR.
type RedisAllocator struct {
	client redis.Cmdable
}

func NewRedisAllocator(client redis.Cmdable) *RedisAllocator {
	return &RedisAllocator{client: client}
}

func (a *RedisAllocator) Allocate(ctx context.Context, key string) (int64, error) {
	seq, err := a.client.Incr(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate sequence %q: %w", key, err)
	}
	return seq, nil
}

// NewRedisClient connects to the Redis instance at url and verifies it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Ping reports whether the backing Redis answers; used by the health endpoint.
func (a *RedisAllocator) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

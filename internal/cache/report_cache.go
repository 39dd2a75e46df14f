package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ReportCache stores rendered report payloads keyed by report kind and filter.
// Invalidate drops every entry at once, e.g. after the dataset is reseeded.
type ReportCache interface {
	Get(ctx context.Context, kind, key string, dst any) (bool, error)
	Set(ctx context.Context, kind, key string, v any) error
	Invalidate(ctx context.Context) error
}

const generationKey = "reports:generation"

// RedisReportCache namespaces keys by a generation counter so invalidation
// is a single INCR instead of a key scan.
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReportCache(client *redis.Client, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl}
}

func (c *RedisReportCache) generation(ctx context.Context) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *RedisReportCache) key(ctx context.Context, kind, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	return "reports:" + gen + ":" + kind + ":" + key, nil
}

func (c *RedisReportCache) Get(ctx context.Context, kind, key string, dst any) (bool, error) {
	k, err := c.key(ctx, kind, key)
	if err != nil {
		return false, err
	}

	b, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, kind, key string, v any) error {
	k, err := c.key(ctx, kind, key)
	if err != nil {
		return err
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, k, b, c.ttl).Err()
}

func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

// NoopCache is used when Redis is not configured
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, string, any) (bool, error) { return false, nil }
func (NoopCache) Set(context.Context, string, string, any) error         { return nil }
func (NoopCache) Invalidate(context.Context) error                       { return nil }

// NewRedisClient connects to addr and verifies it with a ping. A nil client
// is returned when addr is empty.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

package pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered slips by id.
type Cache interface {
	Get(ctx context.Context, id uint) ([]byte, bool, error)
	Set(ctx context.Context, id uint, doc []byte) error
	Invalidate(ctx context.Context, id uint) error
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("slip:pdf:%d", id)
}

func (c *RedisCache) Get(ctx context.Context, id uint) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, id uint, doc []byte) error {
	return c.rdb.Set(ctx, cacheKey(id), doc, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, id uint) error {
	return c.rdb.Del(ctx, cacheKey(id)).Err()
}

// NopCache never holds anything.
type NopCache struct{}

func (NopCache) Get(context.Context, uint) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, uint, []byte) error         { return nil }
func (NopCache) Invalidate(context.Context, uint) error          { return nil }

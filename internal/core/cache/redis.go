package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a redis read-through cache. A nil *Cache is valid and always
// calls through to the loader.
type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group
}

func NewFromClient(rdb *redis.Client) *Cache { return &Cache{RDB: rdb} }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return load(ctx)
	}
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	// concurrent misses on one key share a single load
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(ctx, key, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Version reads the generation counter of a namespace. Keys built from it go
// stale as soon as Bump runs.
func (c *Cache) Version(ctx context.Context, ns string) (int64, error) {
	if c == nil {
		return 0, nil
	}
	n, err := c.RDB.Get(ctx, versionKey(ns)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *Cache) Bump(ctx context.Context, ns string) error {
	if c == nil {
		return nil
	}
	return c.RDB.Incr(ctx, versionKey(ns)).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.RDB.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.RDB.Close()
}

func versionKey(ns string) string { return ns + ":gen" }

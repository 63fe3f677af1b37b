package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Load reads a JSON encoded T for key through the cache. Keys are scoped by
// the generation of ns, so one Bump(ns) retires every entry under it. When
// the generation cannot be read the loader runs uncached and onMiss, if set,
// receives the redis error.
func Load[T any](
	ctx context.Context,
	c *Cache,
	ns, key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, error),
	onMiss func(error),
) (T, error) {
	var zero T
	if c == nil {
		return load(ctx)
	}
	gen, err := c.Version(ctx, ns)
	if err != nil {
		if onMiss != nil {
			onMiss(err)
		}
		return load(ctx)
	}
	b, err := c.GetOrLoad(ctx, fmt.Sprintf("%s:v%d:%s", ns, gen, key), ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return out, nil
}

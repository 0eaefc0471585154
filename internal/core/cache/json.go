package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetOrLoadJSON caches load's result as JSON under key. A value that no longer decodes
// (e.g. after a struct change) is dropped and reloaded instead of failing the request.
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	if !c.Enabled() {
		return load(ctx)
	}
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil || string(b) == "null" {
		_ = c.Delete(ctx, key)
		return load(ctx)
	}
	return &out, nil
}

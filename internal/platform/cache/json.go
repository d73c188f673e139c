package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores loader results as JSON under a fixed TTL. A nil client or
// a zero TTL turns every fetch into a direct load.
type JSONCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJSONCache instantiates the cache helper.
func NewJSONCache(client *redis.Client, ttl time.Duration) *JSONCache {
	return &JSONCache{client: client, ttl: ttl}
}

// FetchJSON loads a cached value into dest or populates it using the loader.
// Redis read failures fall through to the loader; write failures are ignored.
func (c *JSONCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("platform/cache: loader required")
	}
	if c != nil && c.client != nil && c.ttl > 0 {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c != nil && c.client != nil && c.ttl > 0 {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate drops the given keys.
func (c *JSONCache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

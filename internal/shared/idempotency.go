package shared

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore remembers processed request keys in Redis for a bounded TTL.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(client *redis.Client, prefix string, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

// CheckAndInsert ensures key uniqueness per module.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil || s.client == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	ok, err := s.client.SetNX(ctx, s.redisKey(module, key), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrIdempotencyConflict
	}
	return nil
}

// Delete removes a key, typically used to roll back failed processing.
func (s *IdempotencyStore) Delete(ctx context.Context, key, module string) error {
	if s == nil || s.client == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	return s.client.Del(ctx, s.redisKey(module, key)).Err()
}

func (s *IdempotencyStore) redisKey(module, key string) string {
	return s.prefix + "idem:" + module + ":" + key
}

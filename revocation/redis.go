package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "revoked:"

// RedisStore keeps revocation entries in Redis with a per-entry TTL equal
// to the remaining token lifetime, so eviction happens server-side and the
// set never outgrows the maximum token lifetime.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore wraps rdb. An empty prefix defaults to "revoked:".
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Add stores jti with TTL = expiresAt-now (floored to one minute).
func (s *RedisStore) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := entryTTL(expiresAt, time.Now())
	return s.rdb.Set(ctx, s.prefix+jti, "1", ttl).Err()
}

// Contains checks key existence.
func (s *RedisStore) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.prefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis transport or command failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

const clearScanCount = 500

// Redis is a Store that keeps values under a key namespace in Redis.
//
// Keys are written as prefix + ":" + key so several applications (or
// several session managers with different keys) can share one database.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis store. prefix sets the key namespace; a positive
// ttl makes every Set expire after ttl, zero keeps values until deleted.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Redis) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Get returns the value stored under key.
//
//	Performance: 1 Redis GET.
func (s *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, true, nil
}

// Set stores value under key, applying the configured TTL.
//
//	Performance: 1 Redis SET.
func (s *Redis) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
//
//	Performance: 1 Redis DEL.
func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Clear removes every key in this store's namespace. With an empty prefix
// it would flush unrelated data, so it refuses instead.
//
// Clear is O(n) over the keyspace (SCAN) and not atomic: keys written while
// it runs may survive.
func (s *Redis) Clear(ctx context.Context) error {
	if s.prefix == "" {
		return errors.New("refusing to clear redis store without a key prefix")
	}

	pattern := s.prefix + ":*"
	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, clearScanCount).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if len(keys) > 0 {
			if err := s.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Redis) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

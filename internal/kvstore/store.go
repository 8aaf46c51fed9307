package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for pattern sweeps. Sweeps are rare
// (explicit wildcard invalidation), so a modest page keeps each
// round-trip cheap.
const scanBatch = 256

// Store is a strict byte store on top of Redis. All methods report
// backing failures to the caller; none retry.
type Store struct {
	redis redis.UniversalClient
}

// New creates a [Store] backed by the given Redis client.
func New(redisClient redis.UniversalClient) *Store {
	return &Store{redis: redisClient}
}

// Get returns the value stored under key, or [ErrMiss] when absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return val, nil
}

// Set writes value under key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Del removes the given keys. Removing an absent key is not an error.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DelPattern removes every key matching the glob pattern, paging through
// the keyspace with SCAN so the sweep never blocks the server the way
// KEYS would.
func (s *Store) DelPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, scanBatch).Result()
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

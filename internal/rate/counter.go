package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any Redis failure during counter bookkeeping.
var ErrRedisUnavailable = errors.New("redis unavailable")

const keyPrefix = "rate_limit"

// Key builds the counter key for an (action, identifier) pair.
func Key(action, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, action, identifier)
}

// Counter implements raw fixed-window bookkeeping on Redis. It holds no
// policy: limits, periods, and failure handling belong to the caller.
type Counter struct {
	redis redis.UniversalClient
}

// New creates a [Counter] backed by the given Redis client.
func New(redisClient redis.UniversalClient) *Counter {
	return &Counter{redis: redisClient}
}

// Current returns the attempt count observed for key, zero when no window
// is open.
func (c *Counter) Current(ctx context.Context, key string) (int64, error) {
	count, err := c.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}

// Open starts a new window for key: count 1, expiring after window.
func (c *Counter) Open(ctx context.Context, key string, window time.Duration) error {
	if err := c.redis.Set(ctx, key, 1, window).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Incr adds one attempt to an already-open window. The window's expiry is
// left unchanged.
func (c *Counter) Incr(ctx context.Context, key string) error {
	if err := c.redis.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Reset destroys the window for key unconditionally.
func (c *Counter) Reset(ctx context.Context, key string) error {
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

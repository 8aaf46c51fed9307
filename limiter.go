package usercore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gentwocoder/usercore/internal/rate"
)

// Rate-limited actions.
const (
	actionRegistration = "registration"
	actionLogin        = "login"
)

// RateLimiter is the fail-open fixed-window admission gate. A backing-store
// failure during check or increment admits the request: a shared limiter
// store going down must never become a denial of service against
// legitimate traffic.
//
// The check-then-increment sequence is not atomic as a unit; under
// concurrent calls in the same window slightly more than limit requests can
// slip through. That is an accepted approximation, not a bug.
type RateLimiter struct {
	counter *rate.Counter
	log     *zap.Logger
}

// NewRateLimiter creates a [RateLimiter] backed by the given Redis client.
// A nil log discards.
func NewRateLimiter(redisClient redis.UniversalClient, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		counter: rate.New(redisClient),
		log:     log,
	}
}

// IsAllowed reports whether identifier may perform action under a budget
// of limit attempts per period. The first attempt opens a fixed window;
// each further attempt increments the count without moving the window's
// expiry. The limit comparison uses the count observed before this call.
func (l *RateLimiter) IsAllowed(ctx context.Context, identifier, action string, limit int, period time.Duration) bool {
	key := rate.Key(action, identifier)

	count, err := l.counter.Current(ctx, key)
	if err != nil {
		l.log.Warn("rate limiter failing open", zap.String("action", action), zap.Error(err))
		return true
	}

	if count >= int64(limit) {
		l.log.Info("rate limit exceeded",
			zap.String("action", action),
			zap.String("identifier", identifier),
			zap.Int("limit", limit))
		return false
	}

	if count == 0 {
		err = l.counter.Open(ctx, key, period)
	} else {
		err = l.counter.Incr(ctx, key)
	}
	if err != nil {
		l.log.Warn("rate limiter failing open", zap.String("action", action), zap.Error(err))
	}
	return true
}

// Reset clears the counter for the (identifier, action) pair
// unconditionally; the next attempt starts a fresh window.
func (l *RateLimiter) Reset(ctx context.Context, identifier, action string) bool {
	if err := l.counter.Reset(ctx, rate.Key(action, identifier)); err != nil {
		l.log.Warn("rate limiter reset failed", zap.String("action", action), zap.Error(err))
		return false
	}
	return true
}

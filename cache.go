package usercore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gentwocoder/usercore/internal/kvstore"
)

// Cache namespaces. Keys are {namespace}:{identifier}.
const (
	nsUser        = "user"
	nsProfile     = "user_profile"
	nsPreferences = "user_preferences"
	nsTokens      = "user_tokens"
)

func cacheKey(namespace, identifier string) string {
	return fmt.Sprintf("%s:%s", namespace, identifier)
}

// Cache is the fail-open cache-aside facade over Redis. Reads degrade to a
// miss and writes to a silent drop on any backing failure; a cache outage
// can raise the miss rate but can never corrupt data or block a write
// path. The underlying strict store lives in internal/kvstore — the
// fail-open decision is made here, once, not sprinkled per call site.
type Cache struct {
	store *kvstore.Store
	cfg   CacheConfig
	log   *zap.Logger
}

// NewCache creates a [Cache] backed by the given Redis client. A nil log
// discards.
func NewCache(redisClient redis.UniversalClient, cfg CacheConfig, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		store: kvstore.New(redisClient),
		cfg:   cfg,
		log:   log,
	}
}

// Get returns the raw value under key. A backing error is logged and
// reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrMiss) {
			c.log.Warn("cache get degraded to miss", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return val, true
}

// Set writes value under key with the given TTL. A backing error is logged
// and the write silently dropped; returns false in that case.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		c.log.Warn("cache write dropped", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Delete removes key. Deleting an absent key succeeds.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	if err := c.store.Del(ctx, key); err != nil {
		c.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// DeletePattern removes every key matching the namespace-scoped glob.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) bool {
	if err := c.store.DelPattern(ctx, pattern); err != nil {
		c.log.Warn("cache pattern sweep failed", zap.String("pattern", pattern), zap.Error(err))
		return false
	}
	return true
}

// InvalidateUser clears the user, profile, and preferences entries for one
// identifier. The three deletes are independent: a failure in one does not
// abort the others, and a partial invalidation is an accepted outcome.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) bool {
	ok := c.Delete(ctx, cacheKey(nsUser, userID))
	ok = c.Delete(ctx, cacheKey(nsProfile, userID)) && ok
	ok = c.Delete(ctx, cacheKey(nsPreferences, userID)) && ok
	return ok
}

func (c *Cache) getJSON(ctx context.Context, key string, out any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// A corrupt entry is as good as absent.
		c.log.Warn("cache entry corrupt, treating as miss", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return c.Set(ctx, key, raw, ttl)
}

// GetUser returns the cached account snapshot for userID.
func (c *Cache) GetUser(ctx context.Context, userID string) (*UserRecord, bool) {
	var u UserRecord
	if !c.getJSON(ctx, cacheKey(nsUser, userID), &u) {
		return nil, false
	}
	return &u, true
}

// SetUser caches the account snapshot on the default tier.
func (c *Cache) SetUser(ctx context.Context, userID string, user *UserRecord) bool {
	return c.setJSON(ctx, cacheKey(nsUser, userID), user, c.cfg.DefaultTTL)
}

// DeleteUser removes the cached account snapshot.
func (c *Cache) DeleteUser(ctx context.Context, userID string) bool {
	return c.Delete(ctx, cacheKey(nsUser, userID))
}

// GetProfile returns the cached profile for userID.
func (c *Cache) GetProfile(ctx context.Context, userID string) (*ProfileRecord, bool) {
	var p ProfileRecord
	if !c.getJSON(ctx, cacheKey(nsProfile, userID), &p) {
		return nil, false
	}
	return &p, true
}

// SetProfile caches the profile on the default tier.
func (c *Cache) SetProfile(ctx context.Context, userID string, profile *ProfileRecord) bool {
	return c.setJSON(ctx, cacheKey(nsProfile, userID), profile, c.cfg.DefaultTTL)
}

// DeleteProfile removes the cached profile.
func (c *Cache) DeleteProfile(ctx context.Context, userID string) bool {
	return c.Delete(ctx, cacheKey(nsProfile, userID))
}

// GetPreferences returns the cached notification preferences for userID.
func (c *Cache) GetPreferences(ctx context.Context, userID string) (*PreferenceRecord, bool) {
	var p PreferenceRecord
	if !c.getJSON(ctx, cacheKey(nsPreferences, userID), &p) {
		return nil, false
	}
	return &p, true
}

// SetPreferences caches the preferences on the long tier; they change
// infrequently.
func (c *Cache) SetPreferences(ctx context.Context, userID string, prefs *PreferenceRecord) bool {
	return c.setJSON(ctx, cacheKey(nsPreferences, userID), prefs, c.cfg.LongTTL)
}

// DeletePreferences removes the cached preferences.
func (c *Cache) DeletePreferences(ctx context.Context, userID string) bool {
	return c.Delete(ctx, cacheKey(nsPreferences, userID))
}

// GetPushTokens returns the cached push-token list for userID.
func (c *Cache) GetPushTokens(ctx context.Context, userID string) ([]PushTokenRecord, bool) {
	var tokens []PushTokenRecord
	if !c.getJSON(ctx, cacheKey(nsTokens, userID), &tokens) {
		return nil, false
	}
	return tokens, true
}

// SetPushTokens caches the push-token list on the short tier; token churn
// is the highest of the four namespaces.
func (c *Cache) SetPushTokens(ctx context.Context, userID string, tokens []PushTokenRecord) bool {
	return c.setJSON(ctx, cacheKey(nsTokens, userID), tokens, c.cfg.ShortTTL)
}

// DeletePushTokens removes the cached push-token list.
func (c *Cache) DeletePushTokens(ctx context.Context, userID string) bool {
	return c.Delete(ctx, cacheKey(nsTokens, userID))
}

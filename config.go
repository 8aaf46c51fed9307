package usercore

import (
	"errors"
	"time"
)

// Config defines a public type used by usercore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Broker    BrokerConfig
	Audit     AuditConfig
	Password  PasswordConfig
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig sets the three TTL tiers. Preferences cache on the long tier
// (they change infrequently); user and profile snapshots on the default
// tier; push-token lists on the short tier.
type CacheConfig struct {
	ShortTTL   time.Duration
	DefaultTTL time.Duration
	LongTTL    time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig sets the fixed-window budgets for the admission-sensitive
// operations. Registration windows key on client IP, login windows on user
// ID.
type RateLimitConfig struct {
	RegistrationMaxAttempts int
	RegistrationWindow      time.Duration
	LoginMaxAttempts        int
	LoginWindow             time.Duration
}

/*
====================================
BROKER CONFIG
====================================
*/

// BrokerConfig configures the event publisher. An empty URL disables
// publishing entirely: every publish reports false without dialing.
type BrokerConfig struct {
	URL            string
	ConnectTimeout time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters for [Engine.Register] and
// [Engine.ChangePassword] hashing.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func defaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			ShortTTL:   5 * time.Minute,
			DefaultTTL: time.Hour,
			LongTTL:    24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RegistrationMaxAttempts: 5,
			RegistrationWindow:      time.Hour,
			LoginMaxAttempts:        10,
			LoginWindow:             5 * time.Minute,
		},
		Broker: BrokerConfig{
			ConnectTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
	}
}

// DefaultConfig returns the baseline preset: TTL tiers of 5m/1h/24h,
// registration 5 attempts per hour, login 10 per 5 minutes, broker
// disabled until a URL is set.
func DefaultConfig() Config {
	return defaultConfig()
}

// Validate checks the configuration for internally inconsistent values.
func (c Config) Validate() error {
	if c.Cache.ShortTTL <= 0 || c.Cache.DefaultTTL <= 0 || c.Cache.LongTTL <= 0 {
		return errors.New("cache: all TTL tiers must be positive")
	}
	if c.Cache.ShortTTL > c.Cache.DefaultTTL || c.Cache.DefaultTTL > c.Cache.LongTTL {
		return errors.New("cache: TTL tiers must be ordered short <= default <= long")
	}
	if c.RateLimit.RegistrationMaxAttempts <= 0 || c.RateLimit.LoginMaxAttempts <= 0 {
		return errors.New("ratelimit: attempt budgets must be positive")
	}
	if c.RateLimit.RegistrationWindow <= 0 || c.RateLimit.LoginWindow <= 0 {
		return errors.New("ratelimit: windows must be positive")
	}
	if c.Broker.URL != "" && c.Broker.ConnectTimeout <= 0 {
		return errors.New("broker: connect timeout must be positive when a URL is set")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit: buffer size must not be negative")
	}
	if c.Password.Memory == 0 || c.Password.Time == 0 || c.Password.Parallelism == 0 {
		return errors.New("password: argon2 cost parameters must be positive")
	}
	if c.Password.SaltLength < 8 || c.Password.KeyLength < 16 {
		return errors.New("password: salt must be >= 8 bytes and key >= 16 bytes")
	}
	return nil
}

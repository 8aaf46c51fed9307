package usercore

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gentwocoder/usercore/password"
)

// Builder defines a public type used by usercore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config   Config
	redis    redis.UniversalClient
	provider UserProvider

	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider describes the withuserprovider operation and its observable behavior.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.provider = up
	return b
}

// WithBrokerURL sets the broker endpoint; an empty URL leaves publishing
// disabled.
func (b *Builder) WithBrokerURL(url string) *Builder {
	b.config.Broker.URL = url
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.logger = log
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// The returned [Engine] is the process-wide composition point: one
// publisher connection, one audit dispatcher, shared by every caller.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderReused
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, ErrRedisRequired
	}
	if b.provider == nil {
		return nil, ErrUserProviderRequired
	}

	log := b.logger
	if log == nil {
		log = zap.NewNop()
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:    b.config,
		cache:     NewCache(b.redis, b.config.Cache, log),
		limiter:   NewRateLimiter(b.redis, log),
		publisher: NewPublisher(b.config.Broker, log),
		provider:  b.provider,
		hasher:    hasher,
		audit:     newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:   NewMetrics(),
		log:       log,
	}, nil
}

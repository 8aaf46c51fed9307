package usercore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gentwocoder/usercore/password"
)

// Engine defines a public type used by usercore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// Engine is the consistency orchestrator: every state-changing operation
// runs authoritative-store mutation, then synchronous cache invalidation,
// then best-effort event emission, strictly in that order. Only the store
// mutation can fail the operation; cache and broker degradation are logged
// and absorbed.
type Engine struct {
	config    Config
	cache     *Cache
	limiter   *RateLimiter
	publisher *Publisher
	provider  UserProvider
	hasher    *password.Argon2
	audit     *auditDispatcher
	metrics   *Metrics
	log       *zap.Logger
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.publisher != nil {
		e.publisher.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, userID string, err error, metaFn func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if metaFn != nil {
		event.Metadata = metaFn()
	}
	e.audit.Emit(ctx, event)
}

// emitEvent records the publisher outcome; dropped events are a counted,
// accepted degradation, never a caller-visible failure.
func (e *Engine) emitEvent(published bool) {
	if published {
		e.metricInc(MetricEventPublished)
	} else {
		e.metricInc(MetricEventDropped)
	}
}

// HealthReport summarizes component health for a monitoring endpoint.
// Status is "healthy" or "degraded"; Broker carries the connection state
// name, or "disabled" when no broker URL is configured.
type HealthReport struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Broker   string `json:"broker"`
}

// Health probes the authoritative store and the cache and reports the
// broker connection state. A degraded cache or broker does not mark the
// service unhealthy on its own, but it flips the summary to degraded so
// operators see it.
func (e *Engine) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:   "healthy",
		Database: "healthy",
		Cache:    "healthy",
		Broker:   "disabled",
	}

	if e.provider == nil {
		report.Database = "unconfigured"
		report.Status = "degraded"
	} else if err := e.provider.Ping(ctx); err != nil {
		e.log.Error("database health check failed", zap.Error(err))
		report.Database = "unhealthy"
		report.Status = "degraded"
	}

	probe := []byte("ok")
	if !e.cache.Set(ctx, "health_check", probe, 10*time.Second) {
		report.Cache = "unhealthy"
		report.Status = "degraded"
	} else if _, ok := e.cache.Get(ctx, "health_check"); !ok {
		report.Cache = "unhealthy"
		report.Status = "degraded"
	}

	if e.publisher != nil && e.publisher.Configured() {
		report.Broker = e.publisher.State()
	}

	return report
}

// GetUser returns the account snapshot for userID, read-through: cache
// first, authoritative store on miss, repopulating the default-tier entry.
func (e *Engine) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}

	if user, ok := e.cache.GetUser(ctx, userID); ok {
		e.metricInc(MetricCacheHit)
		return user, nil
	}
	e.metricInc(MetricCacheMiss)

	user, err := e.provider.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	e.cache.SetUser(ctx, userID, &user)
	return &user, nil
}

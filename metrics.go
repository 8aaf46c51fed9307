package usercore

import "sync/atomic"

// MetricID defines a public type used by usercore APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricCacheHit is an exported constant or variable used by the consistency core.
	MetricCacheHit MetricID = iota
	// MetricCacheMiss is an exported constant or variable used by the consistency core.
	MetricCacheMiss
	// MetricEventPublished is an exported constant or variable used by the consistency core.
	MetricEventPublished
	// MetricEventDropped is an exported constant or variable used by the consistency core.
	MetricEventDropped
	// MetricRegistrationSuccess is an exported constant or variable used by the consistency core.
	MetricRegistrationSuccess
	// MetricRegistrationRateLimited is an exported constant or variable used by the consistency core.
	MetricRegistrationRateLimited
	// MetricLoginSuccess is an exported constant or variable used by the consistency core.
	MetricLoginSuccess
	// MetricLoginRateLimited is an exported constant or variable used by the consistency core.
	MetricLoginRateLimited
	// MetricLogout is an exported constant or variable used by the consistency core.
	MetricLogout
	// MetricProfileUpdated is an exported constant or variable used by the consistency core.
	MetricProfileUpdated
	// MetricPreferencesCreated is an exported constant or variable used by the consistency core.
	MetricPreferencesCreated
	// MetricPreferencesUpdated is an exported constant or variable used by the consistency core.
	MetricPreferencesUpdated
	// MetricPasswordChanged is an exported constant or variable used by the consistency core.
	MetricPasswordChanged
	// MetricPushTokenAdded is an exported constant or variable used by the consistency core.
	MetricPushTokenAdded
	// MetricPushTokenUpdated is an exported constant or variable used by the consistency core.
	MetricPushTokenUpdated
	// MetricPushTokenRemoved is an exported constant or variable used by the consistency core.
	MetricPushTokenRemoved
	// MetricPushTokensDeactivated is an exported constant or variable used by the consistency core.
	MetricPushTokensDeactivated

	metricCount
)

// Metrics is a fixed-size atomic counter registry. All methods are safe
// for concurrent use and never allocate on the increment path.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot defines a public type used by usercore APIs.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}

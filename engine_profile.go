package usercore

import (
	"context"
	"fmt"
)

// GetProfile describes the getprofile operation and its observable behavior.
//
// GetProfile may return an error when input validation, dependency calls, or security checks fail.
// GetProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Read-through: a cache hit returns immediately without touching the
// authoritative store; a miss reads the store and repopulates the
// default-tier entry.
func (e *Engine) GetProfile(ctx context.Context, userID string) (*ProfileRecord, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}

	if profile, ok := e.cache.GetProfile(ctx, userID); ok {
		e.metricInc(MetricCacheHit)
		return profile, nil
	}
	e.metricInc(MetricCacheMiss)

	profile, err := e.provider.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	e.cache.SetProfile(ctx, userID, &profile)
	return &profile, nil
}

// UpdateProfile describes the updateprofile operation and its observable behavior.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
// UpdateProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The changed-field diff is computed against the current authoritative
// record. An empty diff is a no-op: no mutation, no invalidation, no
// event. Otherwise the sequence is store-mutate, full three-namespace
// invalidation, then a user.updated event carrying only the fields that
// changed.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*ProfileRecord, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}

	current, err := e.provider.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := patch.diff(current)
	if len(changed) == 0 {
		return &current, nil
	}

	updated, err := e.provider.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	e.cache.InvalidateUser(ctx, userID)

	e.emitEvent(e.publisher.PublishUserUpdated(ctx, userID, changed))

	e.metricInc(MetricProfileUpdated)
	e.emitAudit(ctx, auditEventProfileUpdated, true, userID, nil, func() map[string]string {
		meta := make(map[string]string, len(changed))
		for field := range changed {
			meta[field] = "changed"
		}
		return meta
	})

	return &updated, nil
}

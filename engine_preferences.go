package usercore

import (
	"context"
	"errors"
)

// GetPreferences describes the getpreferences operation and its observable behavior.
//
// GetPreferences may return an error when input validation, dependency calls, or security checks fail.
// GetPreferences does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Read-through on the long tier. A user with no stored preferences gets a
// default record created on the authoritative store before returning.
func (e *Engine) GetPreferences(ctx context.Context, userID string) (*PreferenceRecord, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}

	if prefs, ok := e.cache.GetPreferences(ctx, userID); ok {
		e.metricInc(MetricCacheHit)
		return prefs, nil
	}
	e.metricInc(MetricCacheMiss)

	prefs, err := e.provider.GetPreferences(ctx, userID)
	if errors.Is(err, ErrPreferencesNotFound) {
		prefs, err = e.provider.CreatePreferences(ctx, DefaultPreferences(userID))
		if err == nil {
			e.metricInc(MetricPreferencesCreated)
			e.emitAudit(ctx, auditEventPreferencesCreated, true, userID, nil, nil)
		}
	}
	if err != nil {
		return nil, err
	}

	e.cache.SetPreferences(ctx, userID, &prefs)
	return &prefs, nil
}

// UpdatePreferences describes the updatepreferences operation and its observable behavior.
//
// UpdatePreferences may return an error when input validation, dependency calls, or security checks fail.
// UpdatePreferences does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Only the preferences cache entry is invalidated — a preference mutation
// cannot stale the user or profile snapshots. The preferences.updated
// event carries the full post-update snapshot.
func (e *Engine) UpdatePreferences(ctx context.Context, userID string, prefs PreferenceRecord) (*PreferenceRecord, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}
	prefs.UserID = userID

	updated, err := e.provider.UpdatePreferences(ctx, userID, prefs)
	if errors.Is(err, ErrPreferencesNotFound) {
		if _, err = e.provider.CreatePreferences(ctx, DefaultPreferences(userID)); err != nil {
			return nil, err
		}
		updated, err = e.provider.UpdatePreferences(ctx, userID, prefs)
	}
	if err != nil {
		return nil, err
	}

	e.cache.DeletePreferences(ctx, userID)

	e.emitEvent(e.publisher.PublishPreferencesUpdated(ctx, userID, &updated))

	e.metricInc(MetricPreferencesUpdated)
	e.emitAudit(ctx, auditEventPreferencesUpdated, true, userID, nil, nil)

	return &updated, nil
}

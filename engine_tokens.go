package usercore

import (
	"context"
	"errors"
)

// AddPushToken describes the addpushtoken operation and its observable behavior.
//
// AddPushToken may return an error when input validation, dependency calls, or security checks fail.
// AddPushToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Upsert semantics: a token value already registered for the user is
// updated in place and reactivated without emitting an event; a new token
// is created and emits token.added at elevated priority. The second return
// value reports whether a record was created. Either way the cached token
// list is invalidated.
func (e *Engine) AddPushToken(ctx context.Context, input CreatePushTokenInput) (*PushTokenRecord, bool, error) {
	if e.provider == nil {
		return nil, false, ErrEngineNotReady
	}
	if input.UserID == "" || input.Token == "" || input.Platform == "" {
		return nil, false, ErrInvalidInput
	}

	existing, err := e.provider.FindPushTokenByValue(ctx, input.UserID, input.Token)
	switch {
	case err == nil:
		active := true
		patch := PushTokenPatch{Active: &active}
		if input.TokenType != "" {
			patch.TokenType = &input.TokenType
		}
		if input.Platform != "" {
			patch.Platform = &input.Platform
		}
		if input.DeviceID != "" {
			patch.DeviceID = &input.DeviceID
		}
		if input.DeviceName != "" {
			patch.DeviceName = &input.DeviceName
		}

		updated, err := e.provider.UpdatePushToken(ctx, input.UserID, existing.TokenID, patch)
		if err != nil {
			return nil, false, err
		}

		e.cache.DeletePushTokens(ctx, input.UserID)

		e.metricInc(MetricPushTokenUpdated)
		e.emitAudit(ctx, auditEventPushTokenUpdated, true, input.UserID, nil, func() map[string]string {
			return map[string]string{
				"token_id": updated.TokenID,
				"platform": updated.Platform,
			}
		})
		return &updated, false, nil

	case errors.Is(err, ErrPushTokenNotFound):
		// fall through to create

	default:
		return nil, false, err
	}

	created, err := e.provider.CreatePushToken(ctx, input)
	if err != nil {
		return nil, false, err
	}

	e.cache.DeletePushTokens(ctx, input.UserID)

	e.emitEvent(e.publisher.PublishPushTokenAdded(ctx, input.UserID, created.Token, created.Platform))

	e.metricInc(MetricPushTokenAdded)
	e.emitAudit(ctx, auditEventPushTokenAdded, true, input.UserID, nil, func() map[string]string {
		return map[string]string{
			"token_id": created.TokenID,
			"platform": created.Platform,
		}
	})

	return &created, true, nil
}

// ListPushTokens describes the listpushtokens operation and its observable behavior.
//
// ListPushTokens may return an error when input validation, dependency calls, or security checks fail.
// ListPushTokens does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The full token list is read-through cached on the short tier; pagination
// slices the cached list. A page beyond the end clamps to the last page.
func (e *Engine) ListPushTokens(ctx context.Context, userID string, page, limit int) ([]PushTokenRecord, PageMeta, error) {
	if e.provider == nil {
		return nil, PageMeta{}, ErrEngineNotReady
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	tokens, ok := e.cache.GetPushTokens(ctx, userID)
	if ok {
		e.metricInc(MetricCacheHit)
	} else {
		e.metricInc(MetricCacheMiss)
		var err error
		tokens, err = e.provider.ListPushTokens(ctx, userID)
		if err != nil {
			return nil, PageMeta{}, err
		}
		e.cache.SetPushTokens(ctx, userID, tokens)
	}

	total := len(tokens)
	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	meta := PageMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
	return tokens[start:end], meta, nil
}

// GetPushToken describes the getpushtoken operation and its observable behavior.
//
// GetPushToken may return an error when input validation, dependency calls, or security checks fail.
// GetPushToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GetPushToken(ctx context.Context, userID, tokenID string) (*PushTokenRecord, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}
	token, err := e.provider.GetPushToken(ctx, userID, tokenID)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// UpdatePushToken describes the updatepushtoken operation and its observable behavior.
//
// UpdatePushToken may return an error when input validation, dependency calls, or security checks fail.
// UpdatePushToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Token metadata updates emit no event; only lifecycle transitions
// (added/removed) are published.
func (e *Engine) UpdatePushToken(ctx context.Context, userID, tokenID string, patch PushTokenPatch) (*PushTokenRecord, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}

	updated, err := e.provider.UpdatePushToken(ctx, userID, tokenID, patch)
	if err != nil {
		return nil, err
	}

	e.cache.DeletePushTokens(ctx, userID)

	e.metricInc(MetricPushTokenUpdated)
	e.emitAudit(ctx, auditEventPushTokenUpdated, true, userID, nil, func() map[string]string {
		return map[string]string{
			"token_id": tokenID,
		}
	})
	return &updated, nil
}

// RemovePushToken describes the removepushtoken operation and its observable behavior.
//
// RemovePushToken may return an error when input validation, dependency calls, or security checks fail.
// RemovePushToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RemovePushToken(ctx context.Context, userID, tokenID string) error {
	if e.provider == nil {
		return ErrEngineNotReady
	}

	removed, err := e.provider.DeletePushToken(ctx, userID, tokenID)
	if err != nil {
		return err
	}

	e.cache.DeletePushTokens(ctx, userID)

	e.emitEvent(e.publisher.PublishPushTokenRemoved(ctx, userID, removed.Token))

	e.metricInc(MetricPushTokenRemoved)
	e.emitAudit(ctx, auditEventPushTokenRemoved, true, userID, nil, func() map[string]string {
		return map[string]string{
			"token_id": tokenID,
		}
	})
	return nil
}

// DeactivateAllPushTokens describes the deactivateallpushtokens operation and its observable behavior.
//
// DeactivateAllPushTokens may return an error when input validation, dependency calls, or security checks fail.
// DeactivateAllPushTokens does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) DeactivateAllPushTokens(ctx context.Context, userID string) (int, error) {
	if e.provider == nil {
		return 0, ErrEngineNotReady
	}

	count, err := e.provider.DeactivateAllPushTokens(ctx, userID)
	if err != nil {
		return 0, err
	}

	e.cache.DeletePushTokens(ctx, userID)

	e.metricInc(MetricPushTokensDeactivated)
	e.emitAudit(ctx, auditEventPushTokensDeactivated, true, userID, nil, nil)
	return count, nil
}

package usercore

import (
	"context"
	"errors"
	"fmt"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The rate-limit check runs before the authoritative store is touched; a
// denial short-circuits the whole sequence. Registration performs no cache
// invalidation — nothing can be cached for an account that did not exist.
func (e *Engine) Register(ctx context.Context, req RegisterInput) (*UserRecord, error) {
	if e.provider == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return nil, ErrInvalidInput
	}

	identifier := req.ClientIP
	if identifier == "" {
		identifier = "unknown"
	}
	if !e.limiter.IsAllowed(ctx, identifier, actionRegistration,
		e.config.RateLimit.RegistrationMaxAttempts, e.config.RateLimit.RegistrationWindow) {
		e.metricInc(MetricRegistrationRateLimited)
		e.emitAudit(ctx, auditEventRegistrationRateLimited, false, "", ErrRegistrationRateLimited, func() map[string]string {
			return map[string]string{
				"ip": identifier,
			}
		})
		return nil, ErrRegistrationRateLimited
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := e.provider.CreateUser(ctx, CreateUserInput{
		Email:        req.Email,
		Username:     req.Username,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.emitAudit(ctx, auditEventRegistrationDuplicate, false, "", err, func() map[string]string {
				return map[string]string{
					"email": req.Email,
				}
			})
		}
		return nil, err
	}

	e.emitEvent(e.publisher.PublishUserRegistered(ctx, created.UserID, created.Email, created.Username))

	e.metricInc(MetricRegistrationSuccess)
	e.emitAudit(ctx, auditEventRegistrationSuccess, true, created.UserID, nil, func() map[string]string {
		return map[string]string{
			"email":    created.Email,
			"username": created.Username,
		}
	})

	return &created, nil
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Credential verification and token issuance are the host's concern; this
// operation is the admission gate plus the consistency work around a
// successful login: record the login on the authoritative store and warm
// the account snapshot cache.
func (e *Engine) Login(ctx context.Context, req LoginInput) (*UserRecord, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}
	if req.UserID == "" {
		return nil, ErrInvalidInput
	}

	if !e.limiter.IsAllowed(ctx, req.UserID, actionLogin,
		e.config.RateLimit.LoginMaxAttempts, e.config.RateLimit.LoginWindow) {
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, req.UserID, ErrLoginRateLimited, nil)
		return nil, ErrLoginRateLimited
	}

	user, err := e.provider.RecordLogin(ctx, req.UserID, req.ClientIP)
	if err != nil {
		return nil, err
	}

	e.cache.SetUser(ctx, user.UserID, &user)

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, nil, func() map[string]string {
		return map[string]string{
			"ip": req.ClientIP,
		}
	})

	return &user, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Session revocation (when a refresh token is supplied) must succeed before
// the cache sweep; no event is emitted for logouts.
func (e *Engine) Logout(ctx context.Context, userID, refreshToken string) error {
	if e.provider == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrInvalidInput
	}

	if refreshToken != "" {
		if err := e.provider.RevokeSession(ctx, userID, refreshToken); err != nil {
			return err
		}
	}

	e.cache.InvalidateUser(ctx, userID)

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, nil, nil)
	return nil
}

// ChangePassword describes the changepassword operation and its observable behavior.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if e.provider == nil || e.hasher == nil {
		return ErrEngineNotReady
	}
	if userID == "" || newPassword == "" {
		return ErrInvalidInput
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := e.provider.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	e.cache.InvalidateUser(ctx, userID)

	e.metricInc(MetricPasswordChanged)
	e.emitAudit(ctx, auditEventPasswordChanged, true, userID, nil, nil)
	return nil
}

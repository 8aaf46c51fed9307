package usercore

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the consistency core.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrBuilderReused is an exported constant or variable used by the consistency core.
	ErrBuilderReused = errors.New("builder already used")
	// ErrRedisRequired is an exported constant or variable used by the consistency core.
	ErrRedisRequired = errors.New("redis client required")
	// ErrUserProviderRequired is an exported constant or variable used by the consistency core.
	ErrUserProviderRequired = errors.New("user provider required")
	// ErrInvalidInput is an exported constant or variable used by the consistency core.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRegistrationRateLimited is an exported constant or variable used by the consistency core.
	ErrRegistrationRateLimited = errors.New("registration rate limited")
	// ErrLoginRateLimited is an exported constant or variable used by the consistency core.
	ErrLoginRateLimited = errors.New("login rate limited")

	// Provider sentinels. [UserProvider] implementations must return these
	// (possibly wrapped) so the engine can tell domain absences from
	// infrastructure failures.

	// ErrUserNotFound is an exported constant or variable used by the consistency core.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is an exported constant or variable used by the consistency core.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrPreferencesNotFound is an exported constant or variable used by the consistency core.
	ErrPreferencesNotFound = errors.New("notification preferences not found")
	// ErrPushTokenNotFound is an exported constant or variable used by the consistency core.
	ErrPushTokenNotFound = errors.New("push token not found")
)

package kvstore

import "errors"

var (
	// ErrMiss is returned by Get when the key does not exist.
	ErrMiss = errors.New("cache miss")
	// ErrRedisUnavailable wraps any backing-store failure other than a miss.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Package usercore is the consistency core of a user service: it keeps a
// Redis-backed derived cache, a fixed-window admission gate, and a
// RabbitMQ-routed event stream aligned with an authoritative relational
// store under concurrent writes and transient infrastructure outages.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// usercore is the public surface. It exposes [Engine], [Builder], [Config],
// the fail-open facades ([Cache], [RateLimiter], [Publisher]), and value
// types. The strict Redis and AMQP primitives live under internal/ and are
// never exported. The authoritative store is consumed through [UserProvider]
// and is the only source of truth; everything this package holds is derived,
// ephemeral state.
//
// # Failure policy
//
// Three fail-open boundaries, each deliberate: cache errors degrade to a
// miss or a dropped write, rate-limiter errors degrade to allowed, broker
// errors degrade to a dropped event. Only [UserProvider] errors propagate to
// callers, because they mean the source of truth itself could not be read or
// mutated. Every state-changing operation runs store-mutate →
// cache-invalidate → event-emit, strictly in that order.
//
// # What this package must NOT do
//
//   - Issue or validate credentials, tokens, or sessions (external).
//   - Retry or persist dropped events (delivery is at-most-once).
//   - Block a write path on cache or broker health.
package usercore

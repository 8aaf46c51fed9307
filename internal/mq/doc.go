// Package mq owns the AMQP connection state machine behind the public event
// publisher: Disconnected → Connecting → Ready, with lazy inline reconnect.
//
// # Reconnect semantics
//
// There is no background retry. Every publish runs the idempotent
// ensure-ready transition first; a publish failure drops the state straight
// back to Disconnected and the *next* publish re-dials and re-declares the
// full topology (exchange, queues, bindings) before sending. Topology
// declaration is idempotent on the broker side, so re-running it inline is
// safe.
//
// # Error contract
//
// [ErrNotConfigured] when no broker URL was supplied (publishing disabled),
// [ErrBrokerUnavailable] (wrapped) for dial, declare, or publish failures.
// Degrading those to a dropped event is the facade's policy.
//
// # What this package must NOT do
//
//   - Retry or buffer messages (delivery is at-most-once by contract).
//   - Build event envelopes or know routing-key meanings.
//   - Import usercore or any sibling internal package.
package mq

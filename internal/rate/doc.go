// Package rate provides the strict fixed-window counter primitives behind
// the public rate limiter facade.
//
// # Window semantics
//
// A window is keyed rate_limit:{action}:{identifier}. The first attempt
// opens the window (SET 1 with the period as TTL); later attempts INCR
// without touching the TTL, so the window closes a fixed period after it
// opened. The read-check-write sequence is deliberately not atomic: under
// concurrent callers a window can briefly over-admit. That approximation is
// part of the limiter's contract and must not be "fixed" here.
//
// # What this package must NOT do
//
//   - Decide fail-open vs fail-closed (facade policy).
//   - Know about admission actions or their limits.
//   - Import usercore or any sibling internal package.
package rate

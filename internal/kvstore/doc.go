// Package kvstore provides the strict Redis byte-store primitives behind the
// public cache facade: single-key get/set/delete with TTLs and paged
// pattern deletion for namespace sweeps.
//
// # Error contract
//
// Every backing failure is reported: [ErrMiss] for an absent key,
// [ErrRedisUnavailable] (wrapped) for anything else. This package makes no
// fail-open decisions — degrading an error to a miss or a dropped write is
// the facade's policy, not the store's.
//
// # What this package must NOT do
//
//   - Swallow or log errors.
//   - Serialize values (callers hand it bytes).
//   - Import usercore or any sibling internal package.
package kvstore

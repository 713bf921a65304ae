// Package store provides SQLite-backed history of analysis runs.
//
// The store is an append-only log with:
//   - Runs: one record per analyzed unit, keyed by a UUIDv7
//   - Diagnostics: the structured diagnostics of a run, in report order
//
// # Cache Lookup
//
// A run is reusable when the canonical hash of its input unit and the tool
// version both match. LatestByHash returns the most recent such run.
//
// # Ordering
//
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - All queries include ORDER BY seq, with id as tie breaker
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Unit hashes are computed by internal/ast/hash.go using RFC 8785
// canonical JSON and SHA-256 with domain separation.
package store

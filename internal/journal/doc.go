// Package journal provides SQLite-backed durable storage for applied change
// logs.
//
// The journal is an append-only log of the changes a store commits: one row
// per applied add, update, or remove, grouped into sessions. A session is one
// logical run of a test double, identified by a UUIDv7 token.
//
// # Critical Patterns
//
// Logical ordering
//   - All ordering uses seq INTEGER (per-session logical clock), NEVER
//     timestamps
//   - Enables deterministic replay regardless of wall time
//
// Deterministic query results
//   - All queries MUST include: ORDER BY seq ASC, id ASC
//   - Ensures identical results across replays
//
// Idempotent writes
//   - UNIQUE(session, seq) constraint with ON CONFLICT DO NOTHING
//   - Re-recording an already journaled change is a no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Keys are stored in their canonical JSON encoding alongside a
// domain-separated SHA-256 digest computed by internal/entity.
package journal

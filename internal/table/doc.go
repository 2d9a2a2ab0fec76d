// Package table implements the in-memory backing store that stands in for
// an ORM table in tests.
//
// The store owns three structures:
//   - Committed table: key -> entity, mutated only by ApplyChanges
//   - Pending-change buffer: ordered Add/Update/Remove records, drained
//     exactly once per commit in FIFO order
//   - Snapshot: key -> cloned entity, the baseline for dirty-field diffing
//
// plus an ordered live view answering reads without waiting for a commit:
// Add makes an entity visible immediately, Remove hides it immediately,
// while the committed table changes only when ApplyChanges runs.
//
// # Critical patterns
//
// Atomic buffer swap: draining exchanges the whole buffer for an empty one
// in one indivisible step. Changes submitted while a commit is in flight are
// never lost and never double-applied - they wait in the new buffer for the
// next commit.
//
// Single logical writer: all operations run synchronously on the caller's
// goroutine; there is no background processing. The store mutex makes
// multi-goroutine callers safe, but the design assumes one logical writer
// per store, consistent with single-threaded-per-test-context usage.
//
// Partial-prefix commit: when a change in a drained batch fails (duplicate
// key, missing row, concurrency violation), changes applied before it stay
// applied, and the failing change plus the rest of the batch are discarded.
// The returned count always covers exactly the applied prefix.
//
// Clone-on-write, not clone-on-read: seeds and Adds are committed as clones
// so store state is insulated from caller-held references, but reads hand
// back the stored instances. In-place mutation of a read result is exactly
// what the snapshot diff (UpdateSnapshot / GetUpdatedEntities) exists to
// detect.
package table

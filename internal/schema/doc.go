// Package schema describes entity types to the backing store.
//
// The store never inspects entities with reflection. Instead, callers declare
// an explicit Schema for each entity type: an ordered list of field
// descriptors (name, accessor, mutator, optional deep-copy and equality
// functions) plus the ordered key field names. The schema is the single
// source of truth for cloning, key derivation, and dirty-field diffing.
//
// A Schema is compiled once: the persisted-field list and name index are
// memoized on first use and never evicted, so per-operation work is a slice
// walk rather than repeated descriptor resolution.
//
// INVARIANTS:
//   - Field declaration order never changes after construction; diff output
//     reports changed fields in this order.
//   - Key fields are persisted (non-transient) fields.
//   - Every persisted field has both a Get and a Set accessor.
package schema

// Package entity defines the key representation shared by the backing store,
// the key factories, and the change journal.
//
// A Key is the canonical encoding of the ordered tuple of an entity's key
// field values. Two entities have the same Key exactly when their key fields
// are structurally equal, so Keys can be used directly as map keys.
//
// # Canonical encoding
//
// Key parts are serialized as an RFC 8785 canonical JSON array:
//   - Object keys sorted, no HTML escaping, strings NFC normalized
//   - Integers only (floats are forbidden - they make unreliable keys)
//   - nil is forbidden (a missing key part is a caller bug)
//
// uuid.UUID and time.Time parts are encoded as their canonical string forms
// before serialization, so a Key built from equal values is byte-identical
// regardless of which call site built it.
//
// KeyHash provides a fixed-width domain-separated SHA-256 digest of a Key,
// used by the change journal as a stable row identifier.
package entity

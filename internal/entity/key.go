package entity

import "fmt"

// Key is the canonical encoding of an ordered tuple of key part values.
//
// Keys compare with ==, so they serve directly as committed-table and
// snapshot map keys. The encoding is a canonical JSON array, which keeps
// error messages and journal rows human-readable.
type Key string

// NewKey builds a Key from the ordered key part values.
//
// Supported part types: strings, signed and unsigned integers, bool,
// uuid.UUID, and time.Time. Floats and nil are rejected - neither makes a
// reliable key.
func NewKey(parts ...any) (Key, error) {
	if len(parts) == 0 {
		return "", fmt.Errorf("key needs at least one part")
	}
	data, err := marshalCanonicalArray(parts)
	if err != nil {
		return "", fmt.Errorf("encode key: %w", err)
	}
	return Key(data), nil
}

// String returns the canonical encoding. Useful in error messages.
func (k Key) String() string {
	return string(k)
}

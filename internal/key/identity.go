package key

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/standinlabs/standin/internal/entity"
	"github.com/standinlabs/standin/internal/schema"
)

// identityKind is the supported set of database-generated key field types.
type identityKind int

const (
	kindInt identityKind = iota + 1
	kindInt8
	kindInt16
	kindInt32
	kindInt64
	kindUint
	kindUint8
	kindUint16
	kindUint32
	kindUint64
	kindUUID
)

// identityFactory generates values for a single database-generated key field.
//
// EnsureKey on a zero-valued field assigns the next identity from the
// Context, converted to the field's type. EnsureKey on a non-zero integer
// field advances the Context past the existing value so later generated
// identities never collide with it.
type identityFactory[T any] struct {
	field *schema.Field[T]
	kind  identityKind
}

// newIdentityFactory builds the identity strategy when its preconditions
// hold: exactly one key field, marked identity in the schema, of an integer
// or uuid.UUID type. The field type is probed from a zero entity, which
// makes the check static per entity type.
func newIdentityFactory[T any](s *schema.Schema[T]) (Factory[T], bool, error) {
	if !s.Identity() {
		return nil, false, nil
	}
	keyFields := s.KeyFields()
	if len(keyFields) != 1 {
		return nil, false, nil
	}

	var zero T
	kind, ok := probeKind(keyFields[0].Get(&zero))
	if !ok {
		// Unsupported field type: fall back to the composite strategy.
		return nil, false, nil
	}

	return &identityFactory[T]{field: keyFields[0], kind: kind}, true, nil
}

func probeKind(v any) (identityKind, bool) {
	switch v.(type) {
	case int:
		return kindInt, true
	case int8:
		return kindInt8, true
	case int16:
		return kindInt16, true
	case int32:
		return kindInt32, true
	case int64:
		return kindInt64, true
	case uint:
		return kindUint, true
	case uint8:
		return kindUint8, true
	case uint16:
		return kindUint16, true
	case uint32:
		return kindUint32, true
	case uint64:
		return kindUint64, true
	case uuid.UUID:
		return kindUUID, true
	default:
		return 0, false
	}
}

func (f *identityFactory[T]) Key(e *T) (entity.Key, error) {
	return entity.NewKey(f.field.Get(e))
}

func (f *identityFactory[T]) EnsureKey(e *T, kc *Context) (entity.Key, error) {
	cur := f.field.Get(e)

	if n, zero, isInt := intValue(cur); isInt {
		if zero {
			generated := kc.NextIdentity()
			f.field.Set(e, convertIdentity(generated, f.kind))
		} else {
			kc.EnsureIDUsed(n)
		}
		return entity.NewKey(f.field.Get(e))
	}

	// uuid.UUID key field
	if cur.(uuid.UUID) == uuid.Nil {
		f.field.Set(e, identityUUID(kc.NextIdentity()))
	}
	return entity.NewKey(f.field.Get(e))
}

// intValue reports the integer value and zero-ness of an integer-typed key
// field. isInt=false means the field is a uuid.UUID.
func intValue(v any) (n int64, zero, isInt bool) {
	switch val := v.(type) {
	case int:
		return int64(val), val == 0, true
	case int8:
		return int64(val), val == 0, true
	case int16:
		return int64(val), val == 0, true
	case int32:
		return int64(val), val == 0, true
	case int64:
		return val, val == 0, true
	case uint:
		return int64(val), val == 0, true
	case uint8:
		return int64(val), val == 0, true
	case uint16:
		return int64(val), val == 0, true
	case uint32:
		return int64(val), val == 0, true
	case uint64:
		return int64(val), val == 0, true
	default:
		return 0, false, false
	}
}

// convertIdentity converts a generated identity to the key field's type.
func convertIdentity(n int64, kind identityKind) any {
	switch kind {
	case kindInt:
		return int(n)
	case kindInt8:
		return int8(n)
	case kindInt16:
		return int16(n)
	case kindInt32:
		return int32(n)
	case kindInt64:
		return n
	case kindUint:
		return uint(n)
	case kindUint8:
		return uint8(n)
	case kindUint16:
		return uint16(n)
	case kindUint32:
		return uint32(n)
	case kindUint64:
		return uint64(n)
	case kindUUID:
		return identityUUID(n)
	default:
		panic("key: unknown identity kind")
	}
}

// identityUUID derives a well-formed RFC 4122 UUID from the counter value.
// Deterministic by design: the same store seeded the same way assigns the
// same UUIDs, which keeps golden traces stable.
func identityUUID(n int64) uuid.UUID {
	var b [16]byte
	binary.BigEndian.PutUint64(b[8:], uint64(n))
	b[6] = (b[6] & 0x0f) | 0x40 // version 4
	b[8] = (b[8] & 0x3f) | 0x80 // RFC 4122 variant
	return uuid.UUID(b)
}

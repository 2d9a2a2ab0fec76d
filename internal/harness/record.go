package harness

import (
	"encoding/json"
	"fmt"

	"github.com/standinlabs/standin/internal/schema"
)

// Record is the dynamic entity scenarios run against. Field values live in a
// map keyed by declared field name; the scenario's entity declaration gives
// them types.
//
// Values are normalized on the way in: scenario integers become int64 so the
// identity key path and structural equality behave like a static entity's.
type Record struct {
	values map[string]any
}

// NewRecord builds a record from normalized field values.
func NewRecord(values map[string]any) *Record {
	r := &Record{values: make(map[string]any, len(values))}
	for k, v := range values {
		r.values[k] = v
	}
	return r
}

// Get returns the value of a field, or nil when unset.
func (r *Record) Get(name string) any {
	if r.values == nil {
		return nil
	}
	return r.values[name]
}

// Set stores a field value, initializing the backing map on first use so
// zero-value records (as produced by cloning) are usable.
func (r *Record) Set(name string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	r.values[name] = v
}

// Values returns a copy of the field values.
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON serializes the field values as a plain JSON object, so
// journaled records carry their fields instead of an empty body.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.values)
}

// Field type names accepted in entity declarations.
const (
	FieldInt    = "int"
	FieldString = "string"
	FieldBool   = "bool"
)

// zeroValue returns the typed zero for a declared field type. Declared-type
// zeros (not nil) let the key factory probe the identity field's kind on an
// empty record.
func zeroValue(fieldType string) any {
	switch fieldType {
	case FieldInt:
		return int64(0)
	case FieldString:
		return ""
	case FieldBool:
		return false
	default:
		return nil
	}
}

// normalizeValue coerces a YAML-decoded value to the declared field type.
func normalizeValue(fieldType string, v any) (any, error) {
	switch fieldType {
	case FieldInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
		return nil, fmt.Errorf("expected int, got %T", v)
	case FieldString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("expected string, got %T", v)
	case FieldBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("expected bool, got %T", v)
	default:
		return nil, fmt.Errorf("unknown field type %q", fieldType)
	}
}

// BuildSchema compiles a scenario entity declaration into a record schema.
func BuildSchema(def *EntityDef) (*schema.Schema[Record], error) {
	fields := make([]schema.Field[Record], 0, len(def.Fields))
	for _, fd := range def.Fields {
		fd := fd
		fields = append(fields, schema.Field[Record]{
			Name: fd.Name,
			Get: func(r *Record) any {
				if v := r.Get(fd.Name); v != nil {
					return v
				}
				return zeroValue(fd.Type)
			},
			Set: func(r *Record, v any) {
				r.Set(fd.Name, v)
			},
		})
	}

	var opts []schema.Option[Record]
	if def.Identity {
		opts = append(opts, schema.WithIdentity[Record]())
	}

	s, err := schema.New[Record](def.Name, fields, def.Key, opts...)
	if err != nil {
		return nil, fmt.Errorf("build entity schema: %w", err)
	}
	return s, nil
}

// buildRecord normalizes a scenario row against the entity declaration.
// Unknown fields are rejected; absent fields stay unset.
func buildRecord(def *EntityDef, row map[string]any) (*Record, error) {
	byName := make(map[string]string, len(def.Fields))
	for _, fd := range def.Fields {
		byName[fd.Name] = fd.Type
	}

	values := make(map[string]any, len(row))
	for name, raw := range row {
		ft, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("row field %q is not declared on entity %q", name, def.Name)
		}
		v, err := normalizeValue(ft, raw)
		if err != nil {
			return nil, fmt.Errorf("row field %q: %w", name, err)
		}
		values[name] = v
	}
	return NewRecord(values), nil
}

// normalizeKeyParts coerces scenario key part values to the declared types
// of the entity's key fields, positionally.
func normalizeKeyParts(def *EntityDef, parts []any) ([]any, error) {
	if len(parts) != len(def.Key) {
		return nil, fmt.Errorf("key has %d parts, entity %q declares %d key fields",
			len(parts), def.Name, len(def.Key))
	}

	byName := make(map[string]string, len(def.Fields))
	for _, fd := range def.Fields {
		byName[fd.Name] = fd.Type
	}

	out := make([]any, len(parts))
	for i, raw := range parts {
		ft := byName[def.Key[i]]
		v, err := normalizeValue(ft, raw)
		if err != nil {
			return nil, fmt.Errorf("key part %d (%s): %w", i, def.Key[i], err)
		}
		out[i] = v
	}
	return out, nil
}

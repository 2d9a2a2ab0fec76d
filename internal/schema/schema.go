package schema

import (
	"fmt"
	"reflect"
	"sync"
)

// Field describes a single publicly read/write field of entity type T.
type Field[T any] struct {
	// Name identifies the field in diff output and key declarations.
	Name string

	// Get reads the field's current value.
	Get func(*T) any

	// Set writes a value into the field. Required for persisted fields:
	// cloning writes through Set, and identity key generation assigns
	// through the key field's Set.
	Set func(*T, any)

	// Clone deep-copies the field value. Optional; when nil the value is
	// copied by assignment, which is correct for value types. Fields holding
	// slices, maps, or pointers need an explicit Clone to keep store state
	// insulated from caller-held references.
	Clone func(any) any

	// Equal compares two values of this field for the dirty-field diff.
	// Optional; when nil reflect.DeepEqual is used.
	Equal func(a, b any) bool

	// Transient excludes the field from cloning and diffing. Transient
	// fields are left at their zero value in clones.
	Transient bool
}

// CloneValue copies a field value using the declared Clone function, or by
// assignment when none is declared.
func (f *Field[T]) CloneValue(v any) any {
	if f.Clone != nil {
		return f.Clone(v)
	}
	return v
}

// EqualValues compares two field values using the declared Equal function,
// or reflect.DeepEqual when none is declared.
func (f *Field[T]) EqualValues(a, b any) bool {
	if f.Equal != nil {
		return f.Equal(a, b)
	}
	return reflect.DeepEqual(a, b)
}

// Schema is the compiled descriptor for entity type T.
//
// Construct with New; the zero value is not usable.
type Schema[T any] struct {
	name      string
	fields    []Field[T]
	keyNames  []string
	identity  bool

	compileOnce sync.Once
	persisted   []*Field[T]
	byName      map[string]*Field[T]
	keyFields   []*Field[T]
}

// Option configures a Schema.
type Option[T any] func(*Schema[T])

// WithIdentity marks the (single) key field as database-generated. The
// backing store assigns a fresh identity when the field holds its zero value
// at commit time.
func WithIdentity[T any]() Option[T] {
	return func(s *Schema[T]) {
		s.identity = true
	}
}

// New builds and validates a Schema.
//
// fields is the complete ordered list of publicly read/write fields;
// keyNames is the ordered list of field names forming the key. Validation
// failures here are configuration errors: they surface once, at store
// construction, never per operation.
func New[T any](name string, fields []Field[T], keyNames []string, opts ...Option[T]) (*Schema[T], error) {
	s := &Schema[T]{
		name:     name,
		fields:   fields,
		keyNames: keyNames,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.compile()
	return s, nil
}

func (s *Schema[T]) validate() error {
	if s.name == "" {
		return fmt.Errorf("schema: entity type name is required")
	}
	if len(s.fields) == 0 {
		return fmt.Errorf("schema %s: at least one field is required", s.name)
	}

	seen := make(map[string]*Field[T], len(s.fields))
	for i := range s.fields {
		f := &s.fields[i]
		if f.Name == "" {
			return fmt.Errorf("schema %s: field %d has no name", s.name, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %q", s.name, f.Name)
		}
		seen[f.Name] = f
		if f.Get == nil {
			return fmt.Errorf("schema %s: field %q has no Get accessor", s.name, f.Name)
		}
		if !f.Transient && f.Set == nil {
			return fmt.Errorf("schema %s: persisted field %q has no Set accessor", s.name, f.Name)
		}
	}

	if len(s.keyNames) == 0 {
		return fmt.Errorf("schema %s: no key fields declared", s.name)
	}
	for _, name := range s.keyNames {
		f, ok := seen[name]
		if !ok {
			return fmt.Errorf("schema %s: key field %q not declared", s.name, name)
		}
		if f.Transient {
			return fmt.Errorf("schema %s: key field %q is transient", s.name, name)
		}
	}

	if s.identity && len(s.keyNames) != 1 {
		return fmt.Errorf("schema %s: identity requires exactly one key field, got %d", s.name, len(s.keyNames))
	}

	return nil
}

// compile memoizes the persisted-field list, the name index, and the key
// descriptors. Populated once, never evicted.
func (s *Schema[T]) compile() {
	s.compileOnce.Do(func() {
		s.byName = make(map[string]*Field[T], len(s.fields))
		for i := range s.fields {
			f := &s.fields[i]
			s.byName[f.Name] = f
			if !f.Transient {
				s.persisted = append(s.persisted, f)
			}
		}
		s.keyFields = make([]*Field[T], len(s.keyNames))
		for i, name := range s.keyNames {
			s.keyFields[i] = s.byName[name]
		}
	})
}

// Name returns the declared entity type name.
func (s *Schema[T]) Name() string {
	return s.name
}

// Identity reports whether the key field is database-generated.
func (s *Schema[T]) Identity() bool {
	return s.identity
}

// Persisted returns the non-transient fields in declaration order.
// Callers must not mutate the returned slice.
func (s *Schema[T]) Persisted() []*Field[T] {
	return s.persisted
}

// Field returns the descriptor for the named field.
func (s *Schema[T]) Field(name string) (*Field[T], bool) {
	f, ok := s.byName[name]
	return f, ok
}

// KeyNames returns the ordered key field names.
func (s *Schema[T]) KeyNames() []string {
	return s.keyNames
}

// KeyFields returns the ordered key field descriptors.
// Callers must not mutate the returned slice.
func (s *Schema[T]) KeyFields() []*Field[T] {
	return s.keyFields
}

// KeyValues reads the ordered key part values from an entity.
func (s *Schema[T]) KeyValues(e *T) []any {
	parts := make([]any, len(s.keyFields))
	for i, f := range s.keyFields {
		parts[i] = f.Get(e)
	}
	return parts
}

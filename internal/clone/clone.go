// Package clone produces structural copies of entities.
//
// The backing store holds its own clones of everything it commits, insulating
// its internal state from caller-held references. Cloning is driven entirely
// by the entity's schema: every persisted field is copied through its
// descriptor, transient fields stay zero, and reference-typed fields use
// their declared deep-copy function.
package clone

import "github.com/standinlabs/standin/internal/schema"

// Hook transforms a freshly made clone before the store keeps it.
//
// Callers use hooks to simulate database-side defaulting and validation on
// insert. The hook runs once per clone - including every initial-seed clone
// and every snapshot clone - and must return a non-nil entity; it may return
// its argument (mutated or not) or a replacement.
type Hook[T any] func(*T) *T

// Cloner copies entities of one type.
//
// The field list it walks is the schema's compiled persisted-field list,
// computed once per entity type and reused for every clone.
type Cloner[T any] struct {
	schema *schema.Schema[T]
	hook   Hook[T]
}

// New creates a Cloner. hook may be nil.
func New[T any](s *schema.Schema[T], hook Hook[T]) *Cloner[T] {
	return &Cloner[T]{schema: s, hook: hook}
}

// Clone returns a structural copy of e.
//
// Mutating the clone never affects the original and vice versa, for every
// persisted field. Transient fields are left at their zero value.
func (c *Cloner[T]) Clone(e *T) *T {
	out := new(T)
	for _, f := range c.schema.Persisted() {
		f.Set(out, f.CloneValue(f.Get(e)))
	}
	if c.hook != nil {
		out = c.hook(out)
	}
	return out
}

package key

import (
	"github.com/standinlabs/standin/internal/entity"
	"github.com/standinlabs/standin/internal/schema"
)

// compositeFactory derives the key from the declared key fields' current
// values. Nothing is generated: EnsureKey is Key.
type compositeFactory[T any] struct {
	schema *schema.Schema[T]
}

// newCompositeFactory is the always-available fallback strategy. The schema
// guarantees at least one declared key field.
func newCompositeFactory[T any](s *schema.Schema[T]) (Factory[T], bool, error) {
	return &compositeFactory[T]{schema: s}, true, nil
}

func (f *compositeFactory[T]) Key(e *T) (entity.Key, error) {
	return entity.NewKey(f.schema.KeyValues(e)...)
}

func (f *compositeFactory[T]) EnsureKey(e *T, _ *Context) (entity.Key, error) {
	return f.Key(e)
}

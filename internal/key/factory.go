package key

import (
	"fmt"

	"github.com/standinlabs/standin/internal/entity"
	"github.com/standinlabs/standin/internal/schema"
)

// Factory derives keys for one entity type.
//
// Key is read-only. EnsureKey may mutate the entity: the identity strategy
// assigns a generated value into a zero-valued key field before returning.
type Factory[T any] interface {
	// Key returns the entity's key from its current field values.
	Key(e *T) (entity.Key, error)

	// EnsureKey returns the entity's key, generating and assigning identity
	// values where the strategy calls for it.
	EnsureKey(e *T, kc *Context) (entity.Key, error)
}

// builder attempts to construct a Factory for the schema. ok=false means the
// strategy's preconditions are not met and resolution moves to the next
// builder; err is reserved for configuration problems that should stop
// resolution outright.
type builder[T any] func(s *schema.Schema[T]) (Factory[T], bool, error)

// NewFactory resolves the key strategy for an entity type.
//
// Identity construction is tried first; when its preconditions are not met
// (composite key, no identity annotation, unsupported field type) the
// composite strategy applies. The schema guarantees at least one key field,
// so resolution cannot come up empty for a valid schema.
func NewFactory[T any](s *schema.Schema[T]) (Factory[T], error) {
	builders := []builder[T]{
		newIdentityFactory[T],
		newCompositeFactory[T],
	}
	for _, b := range builders {
		f, ok, err := b(s)
		if err != nil {
			return nil, err
		}
		if ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("key: no usable key strategy for entity type %s", s.Name())
}

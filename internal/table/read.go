package table

import (
	"fmt"
	"iter"

	"github.com/standinlabs/standin/internal/entity"
)

// Find looks up a committed row by the ordered key part values.
//
// Only committed state is visible: the pending-change buffer is bypassed.
// A missing row is not an error - Find returns (nil, false, nil). The error
// return is reserved for malformed key parts.
func (s *Store[T]) Find(keyParts ...any) (*T, bool, error) {
	k, err := entity.NewKey(keyParts...)
	if err != nil {
		return nil, false, fmt.Errorf("find: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.rows[k]
	if !ok {
		return nil, false, nil
	}
	return e, true, nil
}

// All returns a copy of the live view at call time. The slice is the
// caller's; the entities are the stored instances.
func (s *Store[T]) All() []*T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*T, len(s.live))
	copy(out, s.live)
	return out
}

// Query returns a finite sequence over the live view as of the call.
// The sequence does not observe later mutation; a fresh call reflects
// current state.
func (s *Store[T]) Query() iter.Seq[*T] {
	snapshot := s.All()
	return func(yield func(*T) bool) {
		for _, e := range snapshot {
			if !yield(e) {
				return
			}
		}
	}
}

// Count returns the number of entities in the live view.
func (s *Store[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

package table

import (
	"sort"

	"github.com/standinlabs/standin/internal/entity"
)

// FieldChange is one changed field of a committed entity: the field name,
// the value at snapshot time, and the value now.
type FieldChange struct {
	Name     string
	Original any
	Current  any
}

// UpdatedEntity pairs a committed entity with its changed fields since the
// last snapshot. Computed by GetUpdatedEntities, never stored.
type UpdatedEntity[T any] struct {
	Entity  *T
	Changes []FieldChange
}

// UpdateSnapshot replaces the snapshot with fresh clones of every committed
// entity, keyed identically to the committed table. The old snapshot is
// dropped wholesale - it is never partially mutated.
//
// Call once after each successful commit cycle to mark a new comparison
// baseline. Snapshot clones run through the post-add hook like every other
// clone.
func (s *Store[T]) UpdateSnapshot() {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[entity.Key]*T, len(s.rows))
	for k, e := range s.rows {
		snapshot[k] = s.cloner.Clone(e)
	}
	s.snapshot = snapshot
}

// GetUpdatedEntities inner-joins the committed table and the snapshot by key
// and structurally diffs every persisted field of each matched pair.
//
// An entity appears in the result only when at least one field differs from
// its snapshot value. Changed fields are reported in schema declaration
// order with the snapshot value as Original and the committed value as
// Current. Entities present on only one side - added since the snapshot, or
// removed - are excluded: the diff is defined only for entities that existed
// at both points in time.
//
// Results are ordered by key for determinism.
func (s *Store[T]) GetUpdatedEntities() []UpdatedEntity[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]entity.Key, 0, len(s.rows))
	for k := range s.rows {
		if _, ok := s.snapshot[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var updated []UpdatedEntity[T]
	for _, k := range keys {
		cur := s.rows[k]
		snap := s.snapshot[k]

		var changes []FieldChange
		for _, f := range s.schema.Persisted() {
			origVal := f.Get(snap)
			curVal := f.Get(cur)
			if !f.EqualValues(origVal, curVal) {
				changes = append(changes, FieldChange{
					Name:     f.Name,
					Original: origVal,
					Current:  curVal,
				})
			}
		}
		if len(changes) > 0 {
			updated = append(updated, UpdatedEntity[T]{Entity: cur, Changes: changes})
		}
	}
	return updated
}

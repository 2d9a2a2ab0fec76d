package table

import (
	"fmt"

	"github.com/standinlabs/standin/internal/entity"
)

// Add buffers an insert. The entity becomes visible in the live view
// immediately, before any commit; the committed table changes only when
// ApplyChanges runs.
//
// The live append happens before the buffer append: a drain racing with Add
// must not see the change before the entity is live, or swapLiveInstance
// would miss it and leave the caller's instance in the view.
func (s *Store[T]) Add(e *T) {
	s.mu.Lock()
	s.live = append(s.live, e)
	s.mu.Unlock()

	s.pending.Append(change[T]{kind: ChangeAdd, entity: e})
}

// AddRange buffers inserts for each entity in order.
func (s *Store[T]) AddRange(entities ...*T) {
	for _, e := range entities {
		s.Add(e)
	}
}

// Update buffers an overwrite of an already-visible entity. No live-view
// side effect.
func (s *Store[T]) Update(e *T) {
	s.pending.Append(change[T]{kind: ChangeUpdate, entity: e})
}

// Remove buffers a delete. The entity disappears from the live view
// immediately; the committed row is deleted only when ApplyChanges runs.
func (s *Store[T]) Remove(e *T) {
	s.pending.Append(change[T]{kind: ChangeRemove, entity: e})

	s.mu.Lock()
	defer s.mu.Unlock()

	if k, ok := s.liveKey(e); ok {
		s.removeLiveByKey(k)
		return
	}
	// Key underivable (malformed key field value): fall back to identity.
	for i, le := range s.live {
		if le == e {
			s.live = append(s.live[:i], s.live[i+1:]...)
			return
		}
	}
}

// RemoveRange buffers deletes for each entity in order.
func (s *Store[T]) RemoveRange(entities ...*T) {
	for _, e := range entities {
		s.Remove(e)
	}
}

// ApplyChanges drains the pending-change buffer and replays each change
// against the committed table in FIFO submission order.
//
// The drain is an atomic swap: changes queued while this call is applying
// land in the fresh buffer and wait for the next ApplyChanges - never lost,
// never double-applied.
//
// Failure policy: the first failing change stops the replay. Changes applied
// before it stay applied; the failing change and the rest of the batch are
// discarded. The returned count always covers exactly the applied prefix.
// A recorder failure also stops the replay, but the change it describes is
// already committed and counts as applied.
func (s *Store[T]) ApplyChanges() (int, error) {
	batch := s.pending.Drain()

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for _, ch := range batch {
		k, stored, err := s.applyOne(ch)
		if err != nil {
			return applied, err
		}
		applied++
		if err := s.record(ch.kind, k, stored); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

// applyOne commits a single drained change. Caller holds s.mu.
// Returns the committed key and the instance to journal for it.
func (s *Store[T]) applyOne(ch change[T]) (entity.Key, *T, error) {
	switch ch.kind {
	case ChangeAdd:
		// Identity values are assigned at commit time and written back
		// into the caller's entity.
		k, err := s.factory.EnsureKey(ch.entity, s.kc)
		if err != nil {
			return "", nil, fmt.Errorf("apply add: %w", err)
		}
		if _, exists := s.rows[k]; exists {
			return "", nil, newDuplicateKeyError("add", s.schema.Name(), k)
		}
		cl := s.cloner.Clone(ch.entity)
		s.rows[k] = cl
		s.swapLiveInstance(ch.entity, cl)
		return k, cl, nil

	case ChangeUpdate:
		k, err := s.factory.Key(ch.entity)
		if err != nil {
			return "", nil, fmt.Errorf("apply update: %w", err)
		}
		if _, exists := s.rows[k]; !exists {
			return "", nil, newMissingRowError("update", s.schema.Name(), k)
		}
		// No clone: the passed instance becomes the stored instance.
		s.rows[k] = ch.entity
		s.replaceLiveByKey(k, ch.entity)
		return k, ch.entity, nil

	case ChangeRemove:
		k, err := s.factory.Key(ch.entity)
		if err != nil {
			return "", nil, fmt.Errorf("apply remove: %w", err)
		}
		if _, exists := s.rows[k]; !exists {
			return "", nil, newConcurrencyError("remove", s.schema.Name(), k)
		}
		delete(s.rows, k)
		return k, ch.entity, nil

	default:
		return "", nil, fmt.Errorf("apply: unknown change kind %d", ch.kind)
	}
}

func (s *Store[T]) record(kind ChangeKind, k entity.Key, e *T) error {
	if s.rec == nil {
		return nil
	}
	if err := s.rec.Record(kind, s.schema.Name(), k, e); err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}
	return nil
}

// swapLiveInstance replaces the caller's pending instance with the stored
// clone, so post-commit reads observe committed state. No-op when the
// instance was already removed from the live view before the commit.
func (s *Store[T]) swapLiveInstance(old, stored *T) {
	for i, le := range s.live {
		if le == old {
			s.live[i] = stored
			return
		}
	}
}

// replaceLiveByKey swaps the live entry with the given key for the new
// stored instance.
func (s *Store[T]) replaceLiveByKey(k entity.Key, stored *T) {
	for i, le := range s.live {
		if lk, ok := s.liveKey(le); ok && lk == k {
			s.live[i] = stored
			return
		}
	}
}

// removeLiveByKey drops the live entry with the given key.
func (s *Store[T]) removeLiveByKey(k entity.Key) {
	for i, le := range s.live {
		if lk, ok := s.liveKey(le); ok && lk == k {
			s.live = append(s.live[:i], s.live[i+1:]...)
			return
		}
	}
}

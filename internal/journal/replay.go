package journal

import (
	"context"
	"fmt"

	"github.com/standinlabs/standin/internal/schema"
	"github.com/standinlabs/standin/internal/table"
)

// Replay rebuilds a store from a session's journaled changes.
//
// Changes are applied strictly in journal order, one commit per change, so
// the rebuilt store passes through the same sequence of committed states the
// original did. The rebuilt store is not connected to the journal; configure
// a recorder via opts to re-journal.
//
// Replay fails if a change does not apply cleanly (e.g., an update whose row
// is missing). A journal written by a store cannot normally contain such a
// change; encountering one means the journal is truncated or mixed between
// entity types.
func Replay[T any](
	ctx context.Context,
	j *Journal,
	session string,
	s *schema.Schema[T],
	opts ...table.Option[T],
) (*table.Store[T], error) {
	changes, err := j.ReadSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	st, err := table.New(s, opts...)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	for _, ch := range changes {
		if ch.EntityType != s.Name() {
			return nil, fmt.Errorf("replay: change %d is for entity type %q, want %q",
				ch.Seq, ch.EntityType, s.Name())
		}

		e := new(T)
		if err := unmarshalEntity(ch.Entity, e); err != nil {
			return nil, fmt.Errorf("replay: change %d: %w", ch.Seq, err)
		}

		switch ch.Kind {
		case "add":
			st.Add(e)
		case "update":
			st.Update(e)
		case "remove":
			st.Remove(e)
		default:
			return nil, fmt.Errorf("replay: change %d has unknown kind %q", ch.Seq, ch.Kind)
		}

		if _, err := st.ApplyChanges(); err != nil {
			return nil, fmt.Errorf("replay: change %d (%s %s): %w", ch.Seq, ch.Kind, ch.Key, err)
		}
	}

	return st, nil
}

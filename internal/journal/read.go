package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadSession returns all changes for a session token.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC.
//
// Returns an empty slice (not nil) if no records exist for the session.
func (j *Journal) ReadSession(ctx context.Context, session string) ([]Change, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session, seq, kind, entity_type, key, key_hash, entity
		FROM changes
		WHERE session = ?
		ORDER BY seq ASC, id ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query session changes: %w", err)
	}
	defer rows.Close()

	return collectChanges(rows)
}

// ReadAll returns every journaled change with deterministic ordering:
// sessions lexicographically, then seq ASC, id ASC within a session.
// UUIDv7 tokens make the session order the creation order.
func (j *Journal) ReadAll(ctx context.Context) ([]Change, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session, seq, kind, entity_type, key, key_hash, entity
		FROM changes
		ORDER BY session ASC, seq ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all changes: %w", err)
	}
	defer rows.Close()

	return collectChanges(rows)
}

// Sessions returns the distinct session tokens in the journal, ordered
// lexicographically.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT DISTINCT session FROM changes ORDER BY session ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// ReadKeyHistory returns every change that touched the given key hash,
// across all sessions, with deterministic ordering.
func (j *Journal) ReadKeyHistory(ctx context.Context, keyHash string) ([]Change, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session, seq, kind, entity_type, key, key_hash, entity
		FROM changes
		WHERE key_hash = ?
		ORDER BY session ASC, seq ASC, id ASC
	`, keyHash)
	if err != nil {
		return nil, fmt.Errorf("query key history: %w", err)
	}
	defer rows.Close()

	return collectChanges(rows)
}

func collectChanges(rows *sql.Rows) ([]Change, error) {
	changes := []Change{}
	for rows.Next() {
		var ch Change
		err := rows.Scan(
			&ch.ID,
			&ch.Session,
			&ch.Seq,
			&ch.Kind,
			&ch.EntityType,
			&ch.Key,
			&ch.KeyHash,
			&ch.Entity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}

	return changes, nil
}

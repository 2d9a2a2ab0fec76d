package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/standinlabs/standin/internal/entity"
	"github.com/standinlabs/standin/internal/table"
)

// Change is one journaled row: a single applied add, update, or remove.
//
// Seq is the per-session logical clock. Key holds the canonical JSON
// encoding of the entity key; KeyHash its domain-separated SHA-256 digest.
// Entity holds the JSON body of the entity as of the change.
type Change struct {
	ID         int64
	Session    string
	Seq        int64
	Kind       string
	EntityType string
	Key        string
	KeyHash    string
	Entity     string
}

// WriteChange inserts a change record into the journal.
// Uses ON CONFLICT(session, seq) DO NOTHING for idempotency - re-recording
// an already journaled change is silently ignored. Other constraint
// violations (e.g., NOT NULL, kind CHECK) still return errors.
func (j *Journal) WriteChange(ctx context.Context, ch Change) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO changes
		(session, seq, kind, entity_type, key, key_hash, entity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, seq) DO NOTHING
	`,
		ch.Session,
		ch.Seq,
		ch.Kind,
		ch.EntityType,
		ch.Key,
		ch.KeyHash,
		ch.Entity,
	)
	if err != nil {
		return fmt.Errorf("write change: %w", err)
	}

	return nil
}

// Session is a journal writer bound to one session token. It implements
// table.Recorder, so a store configured with it journals every applied
// change. The per-session seq counter is owned here, not by the store.
//
// Thread-safety: safe for concurrent use via internal mutex, though a store
// applies changes one at a time.
type Session struct {
	j     *Journal
	ctx   context.Context
	token string

	mu  sync.Mutex
	seq int64
}

// Session returns a writer for the given token. The context is retained and
// used for every write the returned Session performs.
func (j *Journal) Session(ctx context.Context, token string) *Session {
	return &Session{j: j, ctx: ctx, token: token}
}

// Token returns the session token.
func (s *Session) Token() string {
	return s.token
}

// Record journals one applied change. Implements table.Recorder.
func (s *Session) Record(kind table.ChangeKind, entityType string, k entity.Key, e any) error {
	body, err := marshalEntity(e)
	if err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	return s.j.WriteChange(s.ctx, Change{
		Session:    s.token,
		Seq:        seq,
		Kind:       kind.String(),
		EntityType: entityType,
		Key:        k.String(),
		KeyHash:    entity.KeyHash(k),
		Entity:     body,
	})
}

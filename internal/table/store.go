package table

import (
	"fmt"
	"sync"

	"github.com/standinlabs/standin/internal/clone"
	"github.com/standinlabs/standin/internal/entity"
	"github.com/standinlabs/standin/internal/key"
	"github.com/standinlabs/standin/internal/schema"
)

// Recorder receives every change the store applies. Implemented by the
// SQLite change journal; nil-safe via the WithRecorder option simply not
// being used.
type Recorder interface {
	// Record is called after a change has been applied to the committed
	// table, in apply order. e is the stored instance.
	Record(kind ChangeKind, entityType string, k entity.Key, e any) error
}

// Store is the backing store for one entity type.
//
// Construct with New. A Store owns its own key.Context, so identity values
// are monotonic within the store's lifetime and never collide with seeded
// keys.
type Store[T any] struct {
	schema  *schema.Schema[T]
	factory key.Factory[T]
	cloner  *clone.Cloner[T]
	kc      *key.Context
	pending *changeQueue[T]
	rec     Recorder

	mu       sync.Mutex
	rows     map[entity.Key]*T
	live     []*T
	snapshot map[entity.Key]*T
}

// Option configures a Store.
type Option[T any] func(*config[T])

type config[T any] struct {
	seed []*T
	hook clone.Hook[T]
	rec  Recorder
}

// WithSeed supplies the initial entity sequence. Each seed entity gets its
// key derived (identity values assigned where zero), is cloned through the
// post-add hook, and lands in the committed table and the live view.
func WithSeed[T any](entities ...*T) Option[T] {
	return func(c *config[T]) {
		c.seed = append(c.seed, entities...)
	}
}

// WithHook installs the post-add hook. The hook runs once per clone,
// including every seed clone and every snapshot clone.
func WithHook[T any](h clone.Hook[T]) Option[T] {
	return func(c *config[T]) {
		c.hook = h
	}
}

// WithRecorder attaches a change recorder (typically the SQLite journal).
func WithRecorder[T any](r Recorder) Option[T] {
	return func(c *config[T]) {
		c.rec = r
	}
}

// New creates a Store for the schema's entity type.
//
// Key strategy resolution happens here, once: an unusable schema surfaces a
// CONFIG_ERROR at construction rather than per call. Duplicate keys among
// the seed entities reject construction with DUPLICATE_KEY.
func New[T any](s *schema.Schema[T], opts ...Option[T]) (*Store[T], error) {
	cfg := &config[T]{}
	for _, opt := range opts {
		opt(cfg)
	}

	factory, err := key.NewFactory(s)
	if err != nil {
		return nil, newConfigError(s.Name(), err)
	}

	st := &Store[T]{
		schema:   s,
		factory:  factory,
		cloner:   clone.New(s, cfg.hook),
		kc:       key.NewContext(),
		pending:  newChangeQueue[T](),
		rec:      cfg.rec,
		rows:     make(map[entity.Key]*T),
		snapshot: make(map[entity.Key]*T),
	}

	for _, e := range cfg.seed {
		k, err := st.factory.EnsureKey(e, st.kc)
		if err != nil {
			return nil, newConfigError(s.Name(), fmt.Errorf("seed: %w", err))
		}
		if _, exists := st.rows[k]; exists {
			return nil, newDuplicateKeyError("seed", s.Name(), k)
		}
		cl := st.cloner.Clone(e)
		st.rows[k] = cl
		st.live = append(st.live, cl)
	}

	return st, nil
}

// Schema returns the store's entity schema.
func (s *Store[T]) Schema() *schema.Schema[T] {
	return s.schema
}

// Pending returns the number of buffered changes awaiting ApplyChanges.
func (s *Store[T]) Pending() int {
	return s.pending.Len()
}

// liveKey derives the key of a live-view entry. Read-only: identity values
// are never generated here.
func (s *Store[T]) liveKey(e *T) (entity.Key, bool) {
	k, err := s.factory.Key(e)
	if err != nil {
		return "", false
	}
	return k, true
}

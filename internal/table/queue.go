package table

import "sync"

// ChangeKind distinguishes pending change kinds.
type ChangeKind int

const (
	// ChangeAdd inserts a new row at commit time.
	ChangeAdd ChangeKind = iota + 1
	// ChangeUpdate overwrites a committed row at commit time.
	ChangeUpdate
	// ChangeRemove deletes a committed row at commit time.
	ChangeRemove
)

// String returns the journal/trace form of the kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeUpdate:
		return "update"
	case ChangeRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// change is one buffered pending operation. Created on Add/Update/Remove,
// consumed exactly once by ApplyChanges, then discarded.
type change[T any] struct {
	kind   ChangeKind
	entity *T
}

// changeQueue is a thread-safe FIFO buffer of pending changes.
//
// The queue is unbounded: a test context may buffer arbitrarily many changes
// between commits without blocking.
//
// Draining swaps the whole slice for nil in one step under the mutex. A
// commit therefore never loses changes queued concurrently with the drain
// and never applies the same change twice - late changes land in the fresh
// buffer and wait for the next commit.
type changeQueue[T any] struct {
	mu      sync.Mutex
	changes []change[T]
}

func newChangeQueue[T any]() *changeQueue[T] {
	return &changeQueue[T]{
		changes: make([]change[T], 0, 16), // Pre-allocate for typical test workloads
	}
}

// Append adds a change to the back of the buffer.
// Thread-safe: may be called from any goroutine.
func (q *changeQueue[T]) Append(c change[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.changes = append(q.changes, c)
}

// Drain atomically exchanges the buffer for an empty one and returns the
// drained changes in submission order.
func (q *changeQueue[T]) Drain() []change[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.changes
	q.changes = nil
	return batch
}

// Len returns the current number of buffered changes.
func (q *changeQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.changes)
}

package key

import "sync/atomic"

// Context is the monotonic identity counter for one backing store.
//
// Identity values are strictly increasing and never reused within the
// store's lifetime. That ensures deterministic key assignment across a test
// run and keeps generated identities clear of seeded ones.
//
// Thread-safety: Context is safe for concurrent use (atomic operations).
// The store's single-writer discipline means only one goroutine typically
// calls NextIdentity.
type Context struct {
	next atomic.Int64
}

// NewContext creates a counter whose first identity is 1.
func NewContext() *Context {
	c := &Context{}
	c.next.Store(1)
	return c
}

// NextIdentity returns the next identity value and advances the counter.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Context) NextIdentity() int64 {
	return c.next.Add(1) - 1
}

// EnsureIDUsed advances the counter to max(counter, id+1).
//
// Called when seeding the store with pre-keyed entities so subsequently
// generated identities never collide with seeded ones.
func (c *Context) EnsureIDUsed(id int64) {
	for {
		cur := c.next.Load()
		if cur >= id+1 {
			return
		}
		if c.next.CompareAndSwap(cur, id+1) {
			return
		}
	}
}

// Current returns the next identity that would be handed out, without
// advancing the counter. Useful for assertions in tests.
func (c *Context) Current() int64 {
	return c.next.Load()
}

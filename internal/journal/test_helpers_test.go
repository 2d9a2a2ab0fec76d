package journal

import (
	"path/filepath"
	"testing"

	"github.com/standinlabs/standin/internal/schema"
	"github.com/standinlabs/standin/internal/table"
)

// createTestJournal creates a file-backed journal in a temp dir.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// customer is the journaled test entity. Exported fields so the stored JSON
// body round-trips.
type customer struct {
	ID    int64
	Name  string
	Email string
}

func customerSchema(t *testing.T) *schema.Schema[customer] {
	t.Helper()
	s, err := schema.New[customer]("customer", []schema.Field[customer]{
		{
			Name: "id",
			Get:  func(c *customer) any { return c.ID },
			Set:  func(c *customer, v any) { c.ID = v.(int64) },
		},
		{
			Name: "name",
			Get:  func(c *customer) any { return c.Name },
			Set:  func(c *customer, v any) { c.Name = v.(string) },
		},
		{
			Name: "email",
			Get:  func(c *customer) any { return c.Email },
			Set:  func(c *customer, v any) { c.Email = v.(string) },
		},
	}, []string{"id"}, schema.WithIdentity[customer]())
	if err != nil {
		t.Fatalf("schema.New() failed: %v", err)
	}
	return s
}

// createTestChange builds a minimal change row for direct writes.
func createTestChange(session string, seq int64, kind, key string) Change {
	return Change{
		Session:    session,
		Seq:        seq,
		Kind:       kind,
		EntityType: "customer",
		Key:        key,
		KeyHash:    "hash-" + key,
		Entity:     `{"ID":1,"Name":"alice","Email":"a@example.com"}`,
	}
}

// createJournaledStore wires a store to the journal under the given session
// token and commits the given entities.
func createJournaledStore(t *testing.T, j *Journal, token string, entities ...*customer) *table.Store[customer] {
	t.Helper()
	sess := j.Session(t.Context(), token)
	st, err := table.New(customerSchema(t), table.WithRecorder[customer](sess))
	if err != nil {
		t.Fatalf("table.New() failed: %v", err)
	}
	st.AddRange(entities...)
	if _, err := st.ApplyChanges(); err != nil {
		t.Fatalf("ApplyChanges() failed: %v", err)
	}
	return st
}

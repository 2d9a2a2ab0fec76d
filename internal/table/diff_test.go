package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUpdatedEntities_SingleFieldChange(t *testing.T) {
	st := newAccountStore(t, WithSeed(
		&account{ID: 1, Name: "alice", Balance: 10},
		&account{ID: 2, Name: "bob", Balance: 20},
	))
	st.UpdateSnapshot()

	a, ok, err := st.Find(int64(1))
	require.NoError(t, err)
	require.True(t, ok)
	a.Balance = 99

	updated := st.GetUpdatedEntities()
	require.Len(t, updated, 1)
	assert.Same(t, a, updated[0].Entity)

	require.Len(t, updated[0].Changes, 1, "only the mutated field is reported")
	ch := updated[0].Changes[0]
	assert.Equal(t, "balance", ch.Name)
	assert.Equal(t, int64(10), ch.Original)
	assert.Equal(t, int64(99), ch.Current)
}

func TestGetUpdatedEntities_NoSnapshotMeansNoDiffs(t *testing.T) {
	st := newAccountStore(t, WithSeed(&account{ID: 1, Name: "alice"}))

	a, ok, err := st.Find(int64(1))
	require.NoError(t, err)
	require.True(t, ok)
	a.Name = "mutated"

	assert.Empty(t, st.GetUpdatedEntities())
}

func TestGetUpdatedEntities_UnchangedEntitiesExcluded(t *testing.T) {
	st := newAccountStore(t, WithSeed(
		&account{ID: 1, Name: "alice"},
		&account{ID: 2, Name: "bob"},
		&account{ID: 3, Name: "carol"},
	))
	st.UpdateSnapshot()

	b, ok, err := st.Find(int64(2))
	require.NoError(t, err)
	require.True(t, ok)
	b.Name = "robert"

	updated := st.GetUpdatedEntities()
	require.Len(t, updated, 1)
	assert.Equal(t, "robert", updated[0].Entity.Name)
}

func TestGetUpdatedEntities_FieldsInDeclarationOrder(t *testing.T) {
	st := newAccountStore(t, WithSeed(&account{ID: 1, Name: "alice", Balance: 5}))
	st.UpdateSnapshot()

	a, ok, err := st.Find(int64(1))
	require.NoError(t, err)
	require.True(t, ok)
	a.Balance = 6
	a.Name = "alicia"

	updated := st.GetUpdatedEntities()
	require.Len(t, updated, 1)
	require.Len(t, updated[0].Changes, 2)
	assert.Equal(t, "name", updated[0].Changes[0].Name)
	assert.Equal(t, "balance", updated[0].Changes[1].Name)
}

func TestGetUpdatedEntities_OrderedByKey(t *testing.T) {
	st := newAccountStore(t, WithSeed(
		&account{ID: 3, Name: "carol"},
		&account{ID: 1, Name: "alice"},
		&account{ID: 2, Name: "bob"},
	))
	st.UpdateSnapshot()

	for _, id := range []int64{3, 1, 2} {
		a, ok, err := st.Find(id)
		require.NoError(t, err)
		require.True(t, ok)
		a.Name += "-x"
	}

	updated := st.GetUpdatedEntities()
	require.Len(t, updated, 3)
	assert.Equal(t, int64(1), updated[0].Entity.ID)
	assert.Equal(t, int64(2), updated[1].Entity.ID)
	assert.Equal(t, int64(3), updated[2].Entity.ID)
}

func TestGetUpdatedEntities_AddedAndRemovedExcluded(t *testing.T) {
	st := newAccountStore(t, WithSeed(
		&account{ID: 1, Name: "alice"},
		&account{ID: 2, Name: "bob"},
	))
	st.UpdateSnapshot()

	// Committed after the snapshot: present only on the current side.
	st.Add(&account{ID: 3, Name: "carol"})
	// Removed after the snapshot: present only on the snapshot side.
	b, ok, err := st.Find(int64(2))
	require.NoError(t, err)
	require.True(t, ok)
	st.Remove(b)
	_, err = st.ApplyChanges()
	require.NoError(t, err)

	assert.Empty(t, st.GetUpdatedEntities(), "one-sided entities never diff")
}

func TestGetUpdatedEntities_DeepEqualOnSliceFields(t *testing.T) {
	st := newAccountStore(t, WithSeed(
		&account{ID: 1, Name: "alice", Tags: []string{"vip"}},
	))
	st.UpdateSnapshot()

	a, ok, err := st.Find(int64(1))
	require.NoError(t, err)
	require.True(t, ok)
	a.Tags = append(a.Tags, "beta")

	updated := st.GetUpdatedEntities()
	require.Len(t, updated, 1)
	require.Len(t, updated[0].Changes, 1)
	assert.Equal(t, "tags", updated[0].Changes[0].Name)
	assert.Equal(t, []string{"vip"}, updated[0].Changes[0].Original)
	assert.Equal(t, []string{"vip", "beta"}, updated[0].Changes[0].Current)
}

func TestGetUpdatedEntities_SliceFieldEqualContentNoDiff(t *testing.T) {
	st := newAccountStore(t, WithSeed(
		&account{ID: 1, Name: "alice", Tags: []string{"vip"}},
	))
	st.UpdateSnapshot()

	a, ok, err := st.Find(int64(1))
	require.NoError(t, err)
	require.True(t, ok)
	// Fresh backing array, same contents.
	a.Tags = []string{"vip"}

	assert.Empty(t, st.GetUpdatedEntities(), "structural equality, not pointer identity")
}

func TestUpdateSnapshot_ReplacesBaselineWholesale(t *testing.T) {
	st := newAccountStore(t, WithSeed(&account{ID: 1, Name: "alice", Balance: 10}))
	st.UpdateSnapshot()

	a, ok, err := st.Find(int64(1))
	require.NoError(t, err)
	require.True(t, ok)
	a.Balance = 99
	require.Len(t, st.GetUpdatedEntities(), 1)

	// A fresh snapshot absorbs the mutation into the baseline.
	st.UpdateSnapshot()
	assert.Empty(t, st.GetUpdatedEntities())

	a.Balance = 100
	updated := st.GetUpdatedEntities()
	require.Len(t, updated, 1)
	assert.Equal(t, int64(99), updated[0].Changes[0].Original)
	assert.Equal(t, int64(100), updated[0].Changes[0].Current)
}

func TestUpdateSnapshot_ClonesAreInsulated(t *testing.T) {
	st := newAccountStore(t, WithSeed(
		&account{ID: 1, Name: "alice", Tags: []string{"vip"}},
	))
	st.UpdateSnapshot()

	a, ok, err := st.Find(int64(1))
	require.NoError(t, err)
	require.True(t, ok)
	// Mutate through the shared pointer's slice element. The snapshot must
	// have its own backing array for the diff to see this.
	a.Tags[0] = "banned"

	updated := st.GetUpdatedEntities()
	require.Len(t, updated, 1)
	require.Len(t, updated[0].Changes, 1)
	assert.Equal(t, []string{"vip"}, updated[0].Changes[0].Original)
	assert.Equal(t, []string{"banned"}, updated[0].Changes[0].Current)
}

func TestGetUpdatedEntities_CommittedUpdateDiffsAgainstSnapshot(t *testing.T) {
	st := newAccountStore(t, WithSeed(&account{ID: 1, Name: "alice", Balance: 10}))
	st.UpdateSnapshot()

	// A full update cycle, not an in-place mutation.
	st.Update(&account{ID: 1, Name: "alice", Balance: 50})
	_, err := st.ApplyChanges()
	require.NoError(t, err)

	updated := st.GetUpdatedEntities()
	require.Len(t, updated, 1)
	require.Len(t, updated[0].Changes, 1)
	assert.Equal(t, "balance", updated[0].Changes[0].Name)
	assert.Equal(t, int64(10), updated[0].Changes[0].Original)
	assert.Equal(t, int64(50), updated[0].Changes[0].Current)
}

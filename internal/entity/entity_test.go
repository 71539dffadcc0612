package entity

import (
	"cmp"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	id    string
	rank  int
	label string
}

func newRecAdapter() *Adapter[rec] {
	return NewAdapter(
		func(r rec) string { return r.id },
		func(a, b rec) int { return cmp.Compare(a.rank, b.rank) },
	)
}

func requireBijection(t *testing.T, s State[rec]) {
	t.Helper()
	require.Len(t, s.Entities, len(s.IDs))
	seen := make(map[string]bool, len(s.IDs))
	for _, id := range s.IDs {
		require.False(t, seen[id], "duplicate id %s in ordering", id)
		seen[id] = true
		e, ok := s.Entities[id]
		require.True(t, ok, "id %s missing from entities", id)
		require.Equal(t, id, e.id)
	}
}

func requireSorted(t *testing.T, s State[rec]) {
	t.Helper()
	for i := 1; i < len(s.IDs); i++ {
		prev, cur := s.Entities[s.IDs[i-1]], s.Entities[s.IDs[i]]
		require.LessOrEqual(t, prev.rank, cur.rank)
	}
}

func TestAdapter_SetAll(t *testing.T) {
	a := newRecAdapter()
	s := a.SetAll(a.InitialState(), []rec{
		{id: "c", rank: 3},
		{id: "a", rank: 1},
		{id: "b", rank: 2},
	})

	assert.Equal(t, []string{"a", "b", "c"}, s.IDs)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, uint64(1), s.Revision)
	requireBijection(t, s)
}

func TestAdapter_SetAllDuplicateIDs(t *testing.T) {
	a := newRecAdapter()
	s := a.SetAll(a.InitialState(), []rec{
		{id: "a", rank: 1, label: "first"},
		{id: "a", rank: 2, label: "second"},
	})

	require.Equal(t, []string{"a"}, s.IDs)
	assert.Equal(t, "second", s.Entities["a"].label)
	requireBijection(t, s)
}

func TestAdapter_AddOneKeepsOrder(t *testing.T) {
	a := newRecAdapter()
	s := a.SetAll(a.InitialState(), []rec{{id: "a", rank: 1}, {id: "c", rank: 3}})
	s = a.AddOne(s, rec{id: "b", rank: 2})

	assert.Equal(t, []string{"a", "b", "c"}, s.IDs)
	requireBijection(t, s)
}

func TestAdapter_AddOneExistingIsNoop(t *testing.T) {
	a := newRecAdapter()
	s := a.AddOne(a.InitialState(), rec{id: "a", rank: 1, label: "orig"})
	next := a.AddOne(s, rec{id: "a", rank: 9, label: "dup"})

	assert.Equal(t, s, next)
	assert.Equal(t, "orig", next.Entities["a"].label)
}

func TestAdapter_DoesNotMutateInput(t *testing.T) {
	a := newRecAdapter()
	s := a.SetAll(a.InitialState(), []rec{{id: "a", rank: 1}, {id: "b", rank: 2}})
	snapshotIDs := append([]string(nil), s.IDs...)

	_ = a.AddOne(s, rec{id: "z", rank: 0})
	_ = a.UpdateOne(s, "a", func(r rec) rec { r.rank = 10; return r })
	_ = a.RemoveOne(s, "b")
	_ = a.RemoveAll(s)

	assert.Equal(t, snapshotIDs, s.IDs)
	assert.Len(t, s.Entities, 2)
	assert.Equal(t, 1, s.Entities["a"].rank)
}

func TestAdapter_UpdateOneResorts(t *testing.T) {
	a := newRecAdapter()
	s := a.SetAll(a.InitialState(), []rec{{id: "a", rank: 1}, {id: "b", rank: 2}})
	s = a.UpdateOne(s, "a", func(r rec) rec { r.rank = 5; return r })

	assert.Equal(t, []string{"b", "a"}, s.IDs)
	requireBijection(t, s)
}

func TestAdapter_UpdateOneMissingIsNoop(t *testing.T) {
	a := newRecAdapter()
	s := a.SetAll(a.InitialState(), []rec{{id: "a", rank: 1}})
	called := false
	next := a.UpdateOne(s, "missing", func(r rec) rec { called = true; return r })

	assert.False(t, called)
	assert.Equal(t, s, next)
	assert.Equal(t, s.Revision, next.Revision)
}

func TestAdapter_RemoveOne(t *testing.T) {
	a := newRecAdapter()
	s := a.SetAll(a.InitialState(), []rec{{id: "a", rank: 1}, {id: "b", rank: 2}})

	s = a.RemoveOne(s, "a")
	assert.Equal(t, []string{"b"}, s.IDs)
	assert.False(t, s.Has("a"))
	requireBijection(t, s)

	same := a.RemoveOne(s, "a")
	assert.Equal(t, s, same)
}

func TestAdapter_RemoveAllIdempotent(t *testing.T) {
	a := newRecAdapter()
	s := a.SetAll(a.InitialState(), []rec{{id: "a", rank: 1}})

	once := a.RemoveAll(s)
	twice := a.RemoveAll(once)

	assert.Equal(t, 0, once.Len())
	assert.Equal(t, once, twice)
}

func TestAdapter_RandomOperationsKeepInvariants(t *testing.T) {
	a := newRecAdapter()
	s := a.InitialState()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("r%d", rng.Intn(20))
		switch rng.Intn(5) {
		case 0:
			s = a.AddOne(s, rec{id: id, rank: rng.Intn(10)})
		case 1:
			s = a.UpdateOne(s, id, func(r rec) rec { r.rank = rng.Intn(10); return r })
		case 2:
			s = a.RemoveOne(s, id)
		case 3:
			batch := make([]rec, rng.Intn(5))
			for j := range batch {
				batch[j] = rec{id: fmt.Sprintf("r%d", rng.Intn(20)), rank: rng.Intn(10)}
			}
			s = a.SetAll(s, batch)
		case 4:
			if rng.Intn(10) == 0 {
				s = a.RemoveAll(s)
			}
		}
		requireBijection(t, s)
		requireSorted(t, s)
	}
}

func TestState_AllFollowsOrdering(t *testing.T) {
	a := newRecAdapter()
	s := a.SetAll(a.InitialState(), []rec{{id: "b", rank: 2}, {id: "a", rank: 1}})

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].id)
	assert.Equal(t, "b", all[1].id)

	got, ok := s.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, got.rank)
}

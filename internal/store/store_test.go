package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	sqlite, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Storage{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestStorage_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "tasks_u1", "[]"))
			require.NoError(t, s.Set(ctx, "tasks_u1", `[{"id":"a"}]`))
			got, err := s.Get(ctx, "tasks_u1")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"a"}]`, got)

			require.NoError(t, s.Set(ctx, "tasks_U2", "[]"))
			require.NoError(t, s.Set(ctx, "currentUser", "{}"))

			keys, err := s.Keys(ctx, "tasks_")
			require.NoError(t, err)
			assert.Equal(t, []string{"tasks_U2", "tasks_u1"}, keys)

			keys, err = s.Keys(ctx, "tasks_u")
			require.NoError(t, err)
			assert.Equal(t, []string{"tasks_u1"}, keys, "prefix match is case-sensitive")

			require.NoError(t, s.Remove(ctx, "tasks_u1"))
			require.NoError(t, s.Remove(ctx, "tasks_u1"))
			_, err = s.Get(ctx, "tasks_u1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "currentUser", `{"id":"u1"}`))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "currentUser")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, got)

	version, err := reopened.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	var s Storage = Unavailable{}

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), ErrUnavailable)
	assert.ErrorIs(t, s.Remove(ctx, "k"), ErrUnavailable)
	_, err = s.Keys(ctx, "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

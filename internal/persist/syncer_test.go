package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskstate/internal/action"
	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/reducer"
	"github.com/nhle/taskstate/internal/store"
)

func appStateWith(tasks ...model.Task) reducer.AppState {
	s := reducer.InitialState()
	s.Tasks.State = reducer.TaskAdapter.SetAll(s.Tasks.State, tasks)
	return s
}

func TestSyncer_WritesOnTaskMutation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := NewSyncer(NewAdapter(mem), nil)
	defer s.Close()

	prev := reducer.InitialState()
	next := appStateWith(fixtureTasks()...)
	s.Listen(prev, next, action.LoadTasksSucceeded{Tasks: fixtureTasks()})
	s.Flush()

	raw, err := mem.Get(ctx, TaskKey("user_QWxpY2VA"))
	require.NoError(t, err)
	got, err := DecodeTasks(raw)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSyncer_IgnoresNonTaskActions(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := NewSyncer(NewAdapter(mem), nil)
	defer s.Close()

	next := appStateWith(fixtureTasks()...)
	s.Listen(reducer.InitialState(), next, action.SelectTask{ID: "task-1"})
	s.Listen(reducer.InitialState(), next, action.ClearTasks{})
	s.Flush()

	keys, err := mem.Keys(ctx, TaskKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSyncer_SkipsUnchangedRevision(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := NewSyncer(NewAdapter(mem), nil)
	defer s.Close()

	st := appStateWith(fixtureTasks()...)
	s.Listen(st, st, action.DeleteTaskSucceeded{ID: "missing"})
	s.Flush()

	keys, err := mem.Keys(ctx, TaskKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSyncer_ClearsPartitionEmptiedByDelete(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := NewSyncer(NewAdapter(mem), nil)
	defer s.Close()

	only := fixtureTasks()[:1]
	prev := appStateWith(only...)
	s.Listen(reducer.InitialState(), prev, action.LoadTasksSucceeded{Tasks: only})
	s.Flush()
	_, err := mem.Get(ctx, TaskKey("user_QWxpY2VA"))
	require.NoError(t, err)

	next := prev
	next.Tasks.State = reducer.TaskAdapter.RemoveOne(prev.Tasks.State, "task-1")
	s.Listen(prev, next, action.DeleteTaskSucceeded{ID: "task-1"})
	s.Flush()

	_, err = mem.Get(ctx, TaskKey("user_QWxpY2VA"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSyncer_LoadDoesNotClearOtherUsers(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := NewSyncer(NewAdapter(mem), nil)
	defer s.Close()

	alice := fixtureTasks()
	prev := appStateWith(alice...)
	s.Listen(reducer.InitialState(), prev, action.LoadTasksSucceeded{Tasks: alice})

	bob := model.Task{ID: "b1", Title: "bob", Priority: 1, UserID: "user_b"}
	next := appStateWith(bob)
	s.Listen(prev, next, action.LoadTasksSucceeded{Tasks: []model.Task{bob}})
	s.Flush()

	users, err := NewAdapter(mem).StoredUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user_QWxpY2VA", "user_b"}, users)
}

func TestSyncer_CloseIsIdempotent(t *testing.T) {
	s := NewSyncer(NewAdapter(store.NewMemoryStore()), nil)
	s.Close()
	s.Close()

	// Work after close is dropped without blocking.
	s.Listen(reducer.InitialState(), appStateWith(fixtureTasks()...), action.LoadTasksSucceeded{})
	s.Flush()
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/persist"
	"github.com/nhle/taskstate/internal/store"
	"github.com/nhle/taskstate/internal/validate"
	"github.com/nhle/taskstate/tests/testutil"
)

var t0 = time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)

func testConfig() *model.AppConfig {
	cfg := model.DefaultAppConfig()
	cfg.Simulation = model.SimulationConfig{}
	return cfg
}

func openRuntime(t *testing.T, s store.Storage, clock *testutil.Clock) *Runtime {
	t.Helper()
	rt, err := Open(testConfig(),
		WithStorage(s),
		WithRuntimeClock(clock.Now),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestLogin_Scenario(t *testing.T) {
	rt := openRuntime(t, store.NewMemoryStore(), testutil.NewClock(t0))
	svc := rt.Service

	require.NoError(t, svc.Login("Alice@Example.com"))
	rt.Wait()

	u := svc.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "Alice@Example.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "Alice", svc.UserName())
	assert.Equal(t, "Alice@Example.com", svc.UserEmail())
	assert.Equal(t, u.ID, svc.UserID())
	assert.True(t, svc.IsAuthenticated())
	assert.False(t, svc.AuthLoading())
	assert.Empty(t, svc.AuthError())
}

func TestLogin_InvalidEmailDispatchesNothing(t *testing.T) {
	rt := openRuntime(t, store.NewMemoryStore(), testutil.NewClock(t0))

	calls := 0
	unsubscribe := rt.Service.Subscribe(func() { calls++ })
	defer unsubscribe()

	err := rt.Service.Login("not-an-email")
	assert.ErrorIs(t, err, validate.ErrInvalidEmail)
	assert.Zero(t, calls)
	assert.False(t, rt.Service.AuthLoading())
}

func TestAddAndToggle_Scenario(t *testing.T) {
	clock := testutil.NewClock(t0)
	rt := openRuntime(t, store.NewMemoryStore(), clock)
	svc := rt.Service

	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.AddTask(model.CreateTaskRequest{
		Title: "Buy milk", Priority: 3, DueDate: due, UserID: "u1",
	}))
	rt.Wait()

	all := svc.AllTasks()
	require.Len(t, all, 1)
	id := all[0].ID
	created := all[0].UpdatedAt

	clock.Advance(time.Second)
	svc.ToggleTaskCompletion(id)
	got, ok := svc.TaskByID(id)
	require.True(t, ok)
	assert.True(t, got.Completed)
	assert.True(t, got.UpdatedAt.After(created))

	clock.Advance(time.Second)
	svc.ToggleTaskCompletion(id)
	got, _ = svc.TaskByID(id)
	assert.False(t, got.Completed)
}

func TestToggle_TimestampsMatchStoredForm(t *testing.T) {
	clock := testutil.NewClock(t0.Add(456789 * time.Nanosecond))
	rt := openRuntime(t, store.NewMemoryStore(), clock)
	svc := rt.Service

	require.NoError(t, svc.AddTask(model.CreateTaskRequest{Title: "x", Priority: 1, DueDate: t0, UserID: "u1"}))
	rt.Wait()
	id := svc.AllTasks()[0].ID

	clock.Advance(1500 * time.Microsecond)
	svc.ToggleTaskCompletion(id)
	rt.Wait()

	loaded, err := rt.Persist.LoadTasks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	got, _ := svc.TaskByID(id)
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Millisecond)))
	assert.True(t, loaded[0].UpdatedAt.Equal(got.UpdatedAt))
	assert.True(t, loaded[0].CreatedAt.Equal(got.CreatedAt))
}

func TestAddTask_ValidationRejects(t *testing.T) {
	rt := openRuntime(t, store.NewMemoryStore(), testutil.NewClock(t0))

	err := rt.Service.AddTask(model.CreateTaskRequest{Title: "", Priority: 3, DueDate: t0, UserID: "u1"})
	assert.ErrorIs(t, err, validate.ErrInvalidTitle)
	assert.False(t, rt.Service.TaskLoading())

	err = rt.Service.AddTask(model.CreateTaskRequest{Title: "x", Priority: 0, DueDate: t0, UserID: "u1"})
	assert.ErrorIs(t, err, validate.ErrInvalidPriority)
}

func TestAddTask_PastDueDateAllowed(t *testing.T) {
	rt := openRuntime(t, store.NewMemoryStore(), testutil.NewClock(t0))

	require.NoError(t, rt.Service.AddTask(model.CreateTaskRequest{
		Title: "late", Priority: 2, DueDate: t0.AddDate(0, 0, -3), UserID: "u1",
	}))
	rt.Wait()

	assert.Len(t, rt.Service.OverdueTasks(), 1)
}

func TestUpdateTask_UnknownIDSetsError(t *testing.T) {
	rt := openRuntime(t, store.NewMemoryStore(), testutil.NewClock(t0))
	title := "x"

	require.NoError(t, rt.Service.UpdateTask("nope", model.TaskChanges{Title: &title}))
	rt.Wait()

	assert.Equal(t, "task nope not found", rt.Service.TaskError())
	assert.False(t, rt.Service.TaskLoading())

	rt.Service.ClearTaskError()
	assert.Empty(t, rt.Service.TaskError())
}

func TestUpdateTask_Validation(t *testing.T) {
	rt := openRuntime(t, store.NewMemoryStore(), testutil.NewClock(t0))

	assert.Error(t, rt.Service.UpdateTask("", model.TaskChanges{}))
	assert.ErrorIs(t, rt.Service.UpdateTask("t1", model.TaskChanges{}), validate.ErrNoChanges)
}

func TestViews(t *testing.T) {
	rt := openRuntime(t, store.NewMemoryStore(), testutil.NewClock(t0))
	svc := rt.Service

	require.NoError(t, svc.Login("alice@example.com"))
	rt.Wait()
	uid := svc.UserID()

	for _, req := range []model.CreateTaskRequest{
		{Title: "today", Priority: 5, DueDate: time.Date(2025, 1, 8, 18, 0, 0, 0, time.UTC), UserID: uid},
		{Title: "overdue", Priority: 1, DueDate: time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), UserID: uid},
		{Title: "later", Priority: 5, DueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), UserID: uid},
		{Title: "other", Priority: 3, DueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), UserID: "someone"},
	} {
		require.NoError(t, svc.AddTask(req))
		rt.Wait()
	}

	titles := func(ts []model.Task) []string {
		out := make([]string, len(ts))
		for i, task := range ts {
			out[i] = task.Title
		}
		return out
	}

	assert.Equal(t, []string{"overdue", "today", "later", "other"}, titles(svc.AllTasks()))
	assert.Equal(t, []string{"overdue", "today", "later"}, titles(svc.TasksForActiveUser()))
	assert.Equal(t, []string{"overdue"}, titles(svc.OverdueTasks()))
	assert.Equal(t, []string{"today"}, titles(svc.TasksDueToday()))
	assert.Equal(t, []string{"today", "later"}, titles(svc.TasksByPriority(5)))
	assert.Equal(t, 4, svc.TaskTotal())

	later := svc.AllTasks()[2]
	svc.ToggleTaskCompletion(later.ID)
	assert.Equal(t, []string{"later"}, titles(svc.CompletedTasks()))
	assert.Equal(t, []string{"overdue", "today", "other"}, titles(svc.PendingTasks()))
	assert.Equal(t, []string{"later"}, titles(svc.TasksByUserAndStatus(uid, true)))

	svc.SelectTask(later.ID)
	sel, ok := svc.SelectedTask()
	require.True(t, ok)
	assert.Equal(t, "later", sel.Title)

	svc.DeleteTask(later.ID)
	_, ok = svc.SelectedTask()
	assert.False(t, ok, "dangling selection reads as none")
}

func TestLogoutThenAutoLogin_Scenario(t *testing.T) {
	mem := store.NewMemoryStore()
	clock := testutil.NewClock(t0)

	first := openRuntime(t, mem, clock)
	require.NoError(t, first.Service.Login("alice@example.com"))
	first.Wait()
	uid := first.Service.UserID()
	require.NoError(t, first.Service.AddTask(model.CreateTaskRequest{
		Title: "persist me", Priority: 3, DueDate: t0, UserID: uid,
	}))
	first.Wait()
	require.NoError(t, first.Close())

	// A fresh process restores the session and the tasks.
	second := openRuntime(t, mem, clock)
	second.Service.AutoLogin()
	second.Wait()
	require.True(t, second.Service.IsAuthenticated())
	assert.Equal(t, uid, second.Service.UserID())

	require.NoError(t, second.Service.LoadTasks(uid))
	second.Wait()
	require.Len(t, second.Service.TasksForActiveUser(), 1)
	assert.Equal(t, "persist me", second.Service.AllTasks()[0].Title)

	// Logout clears the session and the in-memory tasks, not the partition.
	second.Service.Logout()
	second.Wait()
	assert.False(t, second.Service.IsAuthenticated())
	assert.Zero(t, second.Service.TaskTotal())

	stored, err := second.Persist.LoadTasks(context.Background(), uid)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	second.Service.AutoLogin()
	second.Wait()
	assert.False(t, second.Service.IsAuthenticated())
	assert.Empty(t, second.Service.AuthError())
}

func TestDeleteLastTask_ClearsPartition(t *testing.T) {
	mem := store.NewMemoryStore()
	rt := openRuntime(t, mem, testutil.NewClock(t0))

	require.NoError(t, rt.Service.AddTask(model.CreateTaskRequest{Title: "x", Priority: 1, DueDate: t0, UserID: "u1"}))
	rt.Wait()
	_, err := mem.Get(context.Background(), persist.TaskKey("u1"))
	require.NoError(t, err)

	rt.Service.DeleteTask(rt.Service.AllTasks()[0].ID)
	rt.Wait()

	_, err = mem.Get(context.Background(), persist.TaskKey("u1"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadTasks_RequiresUser(t *testing.T) {
	rt := openRuntime(t, store.NewMemoryStore(), testutil.NewClock(t0))
	assert.ErrorIs(t, rt.Service.LoadTasks(" "), validate.ErrMissingUser)
}

func TestOpen_SQLite(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "state.db")

	rt, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, rt.Service.Login("a@b.c"))
	rt.Wait()
	require.NoError(t, rt.Close())

	rt, err = Open(cfg)
	require.NoError(t, err)
	defer rt.Close()
	rt.Service.AutoLogin()
	rt.Wait()
	assert.Equal(t, "a@b.c", rt.Service.UserEmail())
}

func TestOpen_UnavailableStorageDegrades(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := testConfig()
	cfg.Storage.Path = filepath.Join(blocker, "sub", "state.db")

	rt, err := Open(cfg)
	require.NoError(t, err)
	defer rt.Close()

	require.NoError(t, rt.Service.Login("a@b.c"))
	rt.Wait()
	assert.True(t, rt.Service.IsAuthenticated())

	require.NoError(t, rt.Service.LoadTasks(rt.Service.UserID()))
	rt.Wait()
	assert.Empty(t, rt.Service.TaskError())
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Identity.Backend = "floppy"

	_, err := Open(cfg)
	assert.Error(t, err)
}

func TestOpen_SeparateIdentityBackend(t *testing.T) {
	tasks, identity := store.NewMemoryStore(), store.NewMemoryStore()
	rt, err := Open(testConfig(), WithStorage(tasks), WithIdentityBackend(identity))
	require.NoError(t, err)
	defer rt.Close()

	require.NoError(t, rt.Service.Login("a@b.c"))
	rt.Wait()

	_, err = identity.Get(context.Background(), persist.CurrentUserKey)
	assert.NoError(t, err)
	_, err = tasks.Get(context.Background(), persist.CurrentUserKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

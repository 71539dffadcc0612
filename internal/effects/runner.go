// Package effects runs the asynchronous side of each requested intent and
// reports the outcome back to the store as a succeeded or failed action.
package effects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskstate/internal/action"
	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/persist"
	"github.com/nhle/taskstate/internal/reducer"
	"github.com/nhle/taskstate/internal/state"
)

// User-facing failure messages.
const (
	MsgLoginFailed     = "Login failed"
	MsgLoadTasksFailed = "Failed to load tasks"
	MsgAddTaskFailed   = "Failed to add task"
)

// ErrTaskNotFound is reported when an update names an unknown task.
var ErrTaskNotFound = errors.New("not found")

// ioTimeout bounds a single storage call made by an effect.
const ioTimeout = 10 * time.Second

// Store is the part of state.Store the runner needs.
type Store interface {
	Dispatch(action.Action)
	Subscribe(state.Listener) func()
}

// Runner reacts to requested intents. Each effect runs on its own
// goroutine; overlapping effects are not cancelled, so the last one to
// succeed wins.
type Runner struct {
	store   Store
	persist *persist.Adapter
	logger  *slog.Logger

	now        func() time.Time
	newID      func() string
	loginDelay time.Duration
	taskDelay  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	unsubscribe func()
	stopped     bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithIDGenerator overrides the task id generator.
func WithIDGenerator(f func() string) Option {
	return func(r *Runner) { r.newID = f }
}

// WithDelays sets the simulated latencies.
func WithDelays(login, task time.Duration) Option {
	return func(r *Runner) {
		r.loginDelay = login
		r.taskDelay = task
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner. Call Start to attach it to s.
func New(s Store, p *persist.Adapter, opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		store:      s,
		persist:    p,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		newID:      uuid.NewString,
		loginDelay: model.DefaultAppConfig().Simulation.LoginDelay(),
		taskDelay:  model.DefaultAppConfig().Simulation.TaskDelay(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.persist == nil {
		r.persist = persist.NewAdapter(nil)
	}
	return r
}

// Start subscribes the runner to the store. Calling it twice is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unsubscribe != nil {
		return
	}
	r.unsubscribe = r.store.Subscribe(r.Listen)
}

// Wait blocks until every effect started so far has dispatched its result.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Stop detaches the runner, cancels in-flight effects and waits for them
// to report.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

// Listen is a state.Listener.
func (r *Runner) Listen(_, next reducer.AppState, a action.Action) {
	switch a := a.(type) {
	case action.Login:
		r.spawn(a.Type(), func(ctx context.Context) { r.login(ctx, a.Email) })
	case action.Logout:
		r.spawn(a.Type(), r.logout)
	case action.LogoutSucceeded:
		r.store.Dispatch(action.ClearTasks{})
	case action.AutoLogin:
		r.spawn(a.Type(), r.autoLogin)
	case action.LoadTasks:
		r.spawn(a.Type(), func(ctx context.Context) { r.loadTasks(ctx, a.UserID) })
	case action.AddTask:
		r.spawn(a.Type(), func(ctx context.Context) { r.addTask(ctx, a.Request) })
	case action.UpdateTask:
		existing, ok := next.Tasks.Get(a.ID)
		r.spawn(a.Type(), func(ctx context.Context) {
			r.updateTask(ctx, a.ID, existing, ok, a.Changes)
		})
	case action.DeleteTask:
		r.store.Dispatch(action.DeleteTaskSucceeded{ID: a.ID})
	}
}

// spawn runs fn on its own goroutine. After Stop it does nothing, so no
// wg.Add can race the final Wait.
func (r *Runner) spawn(t action.Type, fn func(ctx context.Context)) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		r.logger.Debug("effect dropped after stop", "action", string(t))
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		r.logger.Debug("effect started", "action", string(t))
		fn(r.ctx)
	}()
}

// stamp returns the current time at the precision the stored form keeps.
func (r *Runner) stamp() time.Time {
	return r.now().Truncate(persist.TimePrecision)
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) login(ctx context.Context, email string) {
	if err := sleep(ctx, r.loginDelay); err != nil {
		r.logger.Info("login cancelled", "error", err)
		r.store.Dispatch(action.LoginFailed{Error: MsgLoginFailed})
		return
	}

	u := NewUser(email, r.stamp())

	ioCtx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()
	if err := r.persist.SaveIdentity(ioCtx, u); err != nil {
		r.logger.Warn("login: identity not persisted", "user_id", u.ID, "error", err)
	}

	r.logger.Info("logged in", "user_id", u.ID)
	r.store.Dispatch(action.LoginSucceeded{User: u})
}

func (r *Runner) logout(ctx context.Context) {
	ioCtx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()
	if err := r.persist.ClearIdentity(ioCtx); err != nil {
		r.logger.Warn("logout: identity not cleared", "error", err)
	}
	r.store.Dispatch(action.LogoutSucceeded{})
}

func (r *Runner) autoLogin(ctx context.Context) {
	ioCtx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()

	u := r.persist.LoadIdentity(ioCtx)
	if u == nil {
		r.store.Dispatch(action.AutoLoginFailed{})
		return
	}
	r.logger.Info("session restored", "user_id", u.ID)
	r.store.Dispatch(action.AutoLoginSucceeded{User: *u})
}

func (r *Runner) loadTasks(ctx context.Context, userID string) {
	if err := sleep(ctx, r.taskDelay); err != nil {
		r.store.Dispatch(action.LoadTasksFailed{Error: MsgLoadTasksFailed})
		return
	}

	ioCtx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()
	tasks, err := r.persist.LoadTasks(ioCtx, userID)
	if err != nil {
		r.logger.Warn("loading tasks", "user_id", userID, "error", err)
		r.store.Dispatch(action.LoadTasksFailed{Error: MsgLoadTasksFailed})
		return
	}
	r.store.Dispatch(action.LoadTasksSucceeded{Tasks: tasks})
}

func (r *Runner) addTask(ctx context.Context, req model.CreateTaskRequest) {
	if err := sleep(ctx, r.taskDelay); err != nil {
		r.store.Dispatch(action.AddTaskFailed{Error: MsgAddTaskFailed})
		return
	}

	now := r.stamp()
	r.store.Dispatch(action.AddTaskSucceeded{Task: model.Task{
		ID:          r.newID(),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Completed:   false,
		UserID:      req.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}})
}

// updateTask merges changes into the task as it was when the update was
// dispatched.
func (r *Runner) updateTask(ctx context.Context, id string, existing model.Task, ok bool, changes model.TaskChanges) {
	if err := sleep(ctx, r.taskDelay); err != nil {
		r.store.Dispatch(action.UpdateTaskFailed{Error: fmt.Sprintf("task %s: update cancelled", id)})
		return
	}
	if !ok {
		err := fmt.Errorf("task %s %w", id, ErrTaskNotFound)
		r.logger.Info("update rejected", "task_id", id, "error", err)
		r.store.Dispatch(action.UpdateTaskFailed{Error: err.Error()})
		return
	}

	t := changes.Apply(existing)
	t.UpdatedAt = r.stamp()
	if t.UpdatedAt.Before(t.CreatedAt) {
		t.UpdatedAt = t.CreatedAt
	}
	r.store.Dispatch(action.UpdateTaskSucceeded{Task: t})
}

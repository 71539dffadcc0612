package persist

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/taskstate/internal/action"
	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/reducer"
)

// writeTimeout bounds a single write-back job.
const writeTimeout = 10 * time.Second

// job is one queued write-back. A job with done set and no tasks is a
// flush marker.
type job struct {
	tasks   []model.Task
	cleared []string
	done    chan struct{}
}

// Syncer writes the task collection back to storage after the reducer has
// applied a task mutation. Writes run on one background goroutine, in the
// order the transitions happened; failures are logged and never reach the
// state.
type Syncer struct {
	adapter *Adapter
	logger  *slog.Logger
	jobs    chan job
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

// NewSyncer starts the background writer.
func NewSyncer(a *Adapter, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Syncer{
		adapter: a,
		logger:  logger,
		jobs:    make(chan job, 16),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go s.run()
	return s
}

// triggersSave reports whether a is one of the task mutations that are
// written back.
func triggersSave(a action.Action) bool {
	switch a.(type) {
	case action.LoadTasksSucceeded,
		action.AddTaskSucceeded,
		action.UpdateTaskSucceeded,
		action.DeleteTaskSucceeded,
		action.ToggleTaskCompletion:
		return true
	}
	return false
}

// Listen is a state.Listener. Subscribe it on the store.
func (s *Syncer) Listen(prev, next reducer.AppState, a action.Action) {
	if !triggersSave(a) {
		return
	}
	if prev.Tasks.Revision == next.Tasks.Revision {
		// No-op transition; nothing changed on disk either.
		return
	}

	j := job{tasks: next.Tasks.All()}
	if _, ok := a.(action.DeleteTaskSucceeded); ok {
		j.cleared = emptiedOwners(prev.Tasks, next.Tasks)
	}
	s.enqueue(j)
}

// emptiedOwners returns users that owned tasks in prev and own none in
// next. Only deletes can empty a partition: a load replaces the in-memory
// collection without saying anything about other users' stored tasks.
func emptiedOwners(prev, next reducer.TaskState) []string {
	remaining := make(map[string]bool)
	for _, t := range next.Entities {
		remaining[t.UserID] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, id := range prev.IDs {
		owner := prev.Entities[id].UserID
		if !remaining[owner] && !seen[owner] {
			seen[owner] = true
			out = append(out, owner)
		}
	}
	return out
}

func (s *Syncer) enqueue(j job) bool {
	select {
	case <-s.stopCh:
		return false
	default:
	}
	select {
	case s.jobs <- j:
		return true
	case <-s.stopCh:
		return false
	}
}

// Flush blocks until every write queued before the call has been attempted.
func (s *Syncer) Flush() {
	done := make(chan struct{})
	if !s.enqueue(job{done: done}) {
		return
	}
	<-done
}

// Close stops accepting work, finishes queued writes and returns.
func (s *Syncer) Close() {
	s.once.Do(func() {
		s.Flush()
		close(s.stopCh)
		<-s.doneCh
	})
}

func (s *Syncer) run() {
	defer close(s.doneCh)
	for {
		select {
		case j := <-s.jobs:
			s.process(j)
		case <-s.stopCh:
			return
		}
	}
}

func (s *Syncer) process(j job) {
	if j.done != nil {
		close(j.done)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.adapter.SaveTasksForAllUsers(ctx, j.tasks); err != nil {
		s.logger.Warn("saving tasks", "error", err)
	}
	for _, userID := range j.cleared {
		if err := s.adapter.ClearTasksForUser(ctx, userID); err != nil {
			s.logger.Warn("clearing emptied partition", "user_id", userID, "error", err)
		}
	}
	s.logger.Debug("tasks written back", "count", len(j.tasks), "cleared", len(j.cleared))
}

// Package selector derives read-only projections from application state.
//
// Memoized views are keyed by the task collection's revision, so a Views
// value must only ever see states from a single lineage (one state.Store).
// Returned slices are shared between callers and must not be modified.
package selector

import (
	"time"

	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/reducer"
)

// dayKey identifies a revision observed on a particular local calendar day.
type dayKey struct {
	revision uint64
	day      string
}

// Views holds the memoization caches for the task projections.
type Views struct {
	now func() time.Time

	all          memo[uint64, []model.Task]
	completed    memo[uint64, []model.Task]
	pending      memo[uint64, []model.Task]
	overdue      memo[dayKey, []model.Task]
	dueToday     memo[dayKey, []model.Task]
	byUser       keyedMemo[string, []model.Task]
	byPriority   keyedMemo[int, []model.Task]
	byUserStatus keyedMemo[userStatus, []model.Task]
}

type userStatus struct {
	userID    string
	completed bool
}

// NewViews returns an empty set of caches. now supplies the observer's
// clock; nil means time.Now.
func NewViews(now func() time.Time) *Views {
	if now == nil {
		now = time.Now
	}
	return &Views{now: now}
}

// AllTasks returns every task in collection order.
func (v *Views) AllTasks(s reducer.TaskState) []model.Task {
	return v.all.get(s.Revision, s.All)
}

// TasksByUser returns the tasks owned by userID.
func (v *Views) TasksByUser(s reducer.TaskState, userID string) []model.Task {
	return v.byUser.get(s.Revision, userID, func() []model.Task {
		return filter(v.AllTasks(s), func(t model.Task) bool { return t.UserID == userID })
	})
}

// CompletedTasks returns the tasks marked done.
func (v *Views) CompletedTasks(s reducer.TaskState) []model.Task {
	return v.completed.get(s.Revision, func() []model.Task {
		return filter(v.AllTasks(s), func(t model.Task) bool { return t.Completed })
	})
}

// PendingTasks returns the tasks not yet done.
func (v *Views) PendingTasks(s reducer.TaskState) []model.Task {
	return v.pending.get(s.Revision, func() []model.Task {
		return filter(v.AllTasks(s), func(t model.Task) bool { return !t.Completed })
	})
}

// TasksByPriority returns the tasks with exactly the given priority.
func (v *Views) TasksByPriority(s reducer.TaskState, priority int) []model.Task {
	return v.byPriority.get(s.Revision, priority, func() []model.Task {
		return filter(v.AllTasks(s), func(t model.Task) bool { return t.Priority == priority })
	})
}

// TasksByUserAndStatus returns userID's tasks whose completed flag matches.
func (v *Views) TasksByUserAndStatus(s reducer.TaskState, userID string, completed bool) []model.Task {
	key := userStatus{userID: userID, completed: completed}
	return v.byUserStatus.get(s.Revision, key, func() []model.Task {
		return filter(v.AllTasks(s), func(t model.Task) bool {
			return t.UserID == userID && t.Completed == completed
		})
	})
}

// OverdueTasks returns pending tasks due before the start of today.
// "Today" is read from the clock on every call.
func (v *Views) OverdueTasks(s reducer.TaskState) []model.Task {
	start, _ := todayBounds(v.now())
	key := dayKey{revision: s.Revision, day: start.Format(time.DateOnly)}
	return v.overdue.get(key, func() []model.Task {
		return Overdue(v.AllTasks(s), start)
	})
}

// TasksDueToday returns pending tasks due within today.
func (v *Views) TasksDueToday(s reducer.TaskState) []model.Task {
	start, end := todayBounds(v.now())
	key := dayKey{revision: s.Revision, day: start.Format(time.DateOnly)}
	return v.dueToday.get(key, func() []model.Task {
		return DueBetween(v.AllTasks(s), start, end)
	})
}

// Overdue filters tasks that are pending and due before startOfToday.
func Overdue(tasks []model.Task, startOfToday time.Time) []model.Task {
	return filter(tasks, func(t model.Task) bool {
		return !t.Completed && t.DueDate.Before(startOfToday)
	})
}

// DueBetween filters pending tasks with start <= due < end.
func DueBetween(tasks []model.Task, start, end time.Time) []model.Task {
	return filter(tasks, func(t model.Task) bool {
		return !t.Completed && !t.DueDate.Before(start) && t.DueDate.Before(end)
	})
}

// todayBounds returns local midnight of now's day and of the next day.
func todayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// TaskByID returns the task with the given id.
func TaskByID(s reducer.TaskState, id string) (model.Task, bool) {
	return s.Get(id)
}

// SelectedTask returns the task referenced by the selection, if it still
// exists.
func SelectedTask(s reducer.TaskState) (model.Task, bool) {
	if s.SelectedTaskID == "" {
		return model.Task{}, false
	}
	return s.Get(s.SelectedTaskID)
}

// TaskTotal returns the number of tasks in the collection.
func TaskTotal(s reducer.TaskState) int { return s.Len() }

func filter(tasks []model.Task, keep func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

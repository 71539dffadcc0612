package reducer

import (
	"github.com/nhle/taskstate/internal/action"
	"github.com/nhle/taskstate/internal/entity"
	"github.com/nhle/taskstate/internal/model"
)

// TaskAdapter keys tasks by ID and keeps them in CompareTasks order.
var TaskAdapter = entity.NewAdapter(
	func(t model.Task) string { return t.ID },
	model.CompareTasks,
)

// TaskState is the task collection slice. SelectedTaskID is a weak
// reference: it may name a task that no longer exists.
type TaskState struct {
	entity.State[model.Task]

	Loading        bool
	Error          string
	SelectedTaskID string
}

// InitialTaskState returns an empty, idle collection.
func InitialTaskState() TaskState {
	return TaskState{State: TaskAdapter.InitialState()}
}

// Tasks computes the next task collection state.
func Tasks(s TaskState, a action.Action) TaskState {
	switch a := a.(type) {
	case action.LoadTasks, action.AddTask, action.UpdateTask, action.DeleteTask:
		s.Loading = true
		s.Error = ""

	case action.LoadTasksSucceeded:
		s.State = TaskAdapter.SetAll(s.State, a.Tasks)
		s.Loading = false
		s.Error = ""
	case action.AddTaskSucceeded:
		s.State = TaskAdapter.AddOne(s.State, a.Task)
		s.Loading = false
		s.Error = ""
	case action.UpdateTaskSucceeded:
		s.State = TaskAdapter.UpdateOne(s.State, a.Task.ID, func(model.Task) model.Task {
			return a.Task
		})
		s.Loading = false
		s.Error = ""
	case action.DeleteTaskSucceeded:
		s.State = TaskAdapter.RemoveOne(s.State, a.ID)
		s.Loading = false
		s.Error = ""

	case action.LoadTasksFailed:
		s.Loading, s.Error = false, a.Error
	case action.AddTaskFailed:
		s.Loading, s.Error = false, a.Error
	case action.UpdateTaskFailed:
		s.Loading, s.Error = false, a.Error
	case action.DeleteTaskFailed:
		s.Loading, s.Error = false, a.Error

	case action.ToggleTaskCompletion:
		s.State = TaskAdapter.UpdateOne(s.State, a.ID, func(t model.Task) model.Task {
			t.Completed = !t.Completed
			t.UpdatedAt = a.At
			if a.At.Before(t.CreatedAt) {
				t.UpdatedAt = t.CreatedAt
			}
			return t
		})
	case action.ClearTasks:
		s.State = TaskAdapter.RemoveAll(s.State)
		s.SelectedTaskID = ""
	case action.SelectTask:
		s.SelectedTaskID = a.ID
	case action.ClearTaskError:
		s.Error = ""
	}
	return s
}

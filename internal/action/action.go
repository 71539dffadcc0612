// Package action defines the closed set of intents that drive the state
// container. Each action is a small value type carrying only its payload.
package action

import (
	"time"

	"github.com/nhle/taskstate/internal/model"
)

// Type is the human-readable name of an action, used in logs.
type Type string

// Identity action types.
const (
	TypeLogin              Type = "[Auth] Login"
	TypeLoginSucceeded     Type = "[Auth] Login Success"
	TypeLoginFailed        Type = "[Auth] Login Failure"
	TypeLogout             Type = "[Auth] Logout"
	TypeLogoutSucceeded    Type = "[Auth] Logout Success"
	TypeAutoLogin          Type = "[Auth] Auto Login"
	TypeAutoLoginSucceeded Type = "[Auth] Auto Login Success"
	TypeAutoLoginFailed    Type = "[Auth] Auto Login Failure"
	TypeClearAuthError     Type = "[Auth] Clear Error"
)

// Task action types.
const (
	TypeLoadTasks            Type = "[Tasks] Load Tasks"
	TypeLoadTasksSucceeded   Type = "[Tasks] Load Tasks Success"
	TypeLoadTasksFailed      Type = "[Tasks] Load Tasks Failure"
	TypeAddTask              Type = "[Tasks] Add Task"
	TypeAddTaskSucceeded     Type = "[Tasks] Add Task Success"
	TypeAddTaskFailed        Type = "[Tasks] Add Task Failure"
	TypeUpdateTask           Type = "[Tasks] Update Task"
	TypeUpdateTaskSucceeded  Type = "[Tasks] Update Task Success"
	TypeUpdateTaskFailed     Type = "[Tasks] Update Task Failure"
	TypeDeleteTask           Type = "[Tasks] Delete Task"
	TypeDeleteTaskSucceeded  Type = "[Tasks] Delete Task Success"
	TypeDeleteTaskFailed     Type = "[Tasks] Delete Task Failure"
	TypeToggleTaskCompletion Type = "[Tasks] Toggle Task Completion"
	TypeClearTasks           Type = "[Tasks] Clear Tasks"
	TypeSelectTask           Type = "[Tasks] Select Task"
	TypeClearTaskError       Type = "[Tasks] Clear Error"
)

// Action is implemented only by the types in this package.
type Action interface {
	Type() Type
	sealed()
}

type base struct{}

func (base) sealed() {}

// === Identity ===

// Login requests a mock login for Email.
type Login struct {
	base
	Email string
}

// LoginSucceeded carries the freshly created user.
type LoginSucceeded struct {
	base
	User model.User
}

// LoginFailed carries a user-facing error message.
type LoginFailed struct {
	base
	Error string
}

// Logout requests the current session be ended.
type Logout struct{ base }

// LogoutSucceeded reports the stored identity was cleared.
type LogoutSucceeded struct{ base }

// AutoLogin requests rehydration of a previously stored identity.
type AutoLogin struct{ base }

// AutoLoginSucceeded carries the rehydrated user.
type AutoLoginSucceeded struct {
	base
	User model.User
}

// AutoLoginFailed reports that no stored identity was found. It is not an
// error condition.
type AutoLoginFailed struct{ base }

// ClearAuthError resets the identity error.
type ClearAuthError struct{ base }

func (Login) Type() Type              { return TypeLogin }
func (LoginSucceeded) Type() Type     { return TypeLoginSucceeded }
func (LoginFailed) Type() Type        { return TypeLoginFailed }
func (Logout) Type() Type             { return TypeLogout }
func (LogoutSucceeded) Type() Type    { return TypeLogoutSucceeded }
func (AutoLogin) Type() Type          { return TypeAutoLogin }
func (AutoLoginSucceeded) Type() Type { return TypeAutoLoginSucceeded }
func (AutoLoginFailed) Type() Type    { return TypeAutoLoginFailed }
func (ClearAuthError) Type() Type     { return TypeClearAuthError }

// === Tasks ===

// LoadTasks requests the stored tasks of one user.
type LoadTasks struct {
	base
	UserID string
}

// LoadTasksSucceeded replaces the collection with Tasks.
type LoadTasksSucceeded struct {
	base
	Tasks []model.Task
}

// LoadTasksFailed carries a user-facing error message.
type LoadTasksFailed struct {
	base
	Error string
}

// AddTask requests creation of a task.
type AddTask struct {
	base
	Request model.CreateTaskRequest
}

// AddTaskSucceeded carries the created task.
type AddTaskSucceeded struct {
	base
	Task model.Task
}

// AddTaskFailed carries a user-facing error message.
type AddTaskFailed struct {
	base
	Error string
}

// UpdateTask requests a partial update of task ID.
type UpdateTask struct {
	base
	ID      string
	Changes model.TaskChanges
}

// UpdateTaskSucceeded carries the fully merged task.
type UpdateTaskSucceeded struct {
	base
	Task model.Task
}

// UpdateTaskFailed carries a user-facing error message.
type UpdateTaskFailed struct {
	base
	Error string
}

// DeleteTask requests removal of task ID.
type DeleteTask struct {
	base
	ID string
}

// DeleteTaskSucceeded removes task ID from the collection.
type DeleteTaskSucceeded struct {
	base
	ID string
}

// DeleteTaskFailed carries a user-facing error message.
type DeleteTaskFailed struct {
	base
	Error string
}

// ToggleTaskCompletion flips the completed flag of task ID. At becomes the
// task's new UpdatedAt.
type ToggleTaskCompletion struct {
	base
	ID string
	At time.Time
}

// ClearTasks empties the collection and the selection.
type ClearTasks struct{ base }

// SelectTask sets the editing selection. An empty ID clears it.
type SelectTask struct {
	base
	ID string
}

// ClearTaskError resets the task error.
type ClearTaskError struct{ base }

func (LoadTasks) Type() Type            { return TypeLoadTasks }
func (LoadTasksSucceeded) Type() Type   { return TypeLoadTasksSucceeded }
func (LoadTasksFailed) Type() Type      { return TypeLoadTasksFailed }
func (AddTask) Type() Type              { return TypeAddTask }
func (AddTaskSucceeded) Type() Type     { return TypeAddTaskSucceeded }
func (AddTaskFailed) Type() Type        { return TypeAddTaskFailed }
func (UpdateTask) Type() Type           { return TypeUpdateTask }
func (UpdateTaskSucceeded) Type() Type  { return TypeUpdateTaskSucceeded }
func (UpdateTaskFailed) Type() Type     { return TypeUpdateTaskFailed }
func (DeleteTask) Type() Type           { return TypeDeleteTask }
func (DeleteTaskSucceeded) Type() Type  { return TypeDeleteTaskSucceeded }
func (DeleteTaskFailed) Type() Type     { return TypeDeleteTaskFailed }
func (ToggleTaskCompletion) Type() Type { return TypeToggleTaskCompletion }
func (ClearTasks) Type() Type           { return TypeClearTasks }
func (SelectTask) Type() Type           { return TypeSelectTask }
func (ClearTaskError) Type() Type       { return TypeClearTaskError }

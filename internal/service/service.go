// Package service is the intent facade used by front ends. Methods that
// take user input validate it first and dispatch nothing when it is
// rejected; every other failure surfaces on the state slices.
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/taskstate/internal/action"
	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/persist"
	"github.com/nhle/taskstate/internal/reducer"
	"github.com/nhle/taskstate/internal/selector"
	"github.com/nhle/taskstate/internal/state"
	"github.com/nhle/taskstate/internal/validate"
)

// Service dispatches intents into a state.Store and reads views back.
type Service struct {
	store *state.Store
	views *selector.Views
	now   func() time.Time
}

// New returns a Service over st. now is the observer clock used for the
// date-relative views and toggle timestamps; nil means time.Now.
func New(st *state.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store: st,
		views: selector.NewViews(now),
		now:   now,
	}
}

// State returns the current state snapshot.
func (s *Service) State() reducer.AppState { return s.store.State() }

// Subscribe calls fn after every transition. The returned func removes it.
func (s *Service) Subscribe(fn func()) func() {
	return s.store.Subscribe(func(reducer.AppState, reducer.AppState, action.Action) { fn() })
}

// === Identity intents ===

// Login validates email and starts a mock login.
func (s *Service) Login(email string) error {
	addr, err := validate.Email(email)
	if err != nil {
		return err
	}
	s.store.Dispatch(action.Login{Email: addr})
	return nil
}

func (s *Service) Logout()         { s.store.Dispatch(action.Logout{}) }
func (s *Service) AutoLogin()      { s.store.Dispatch(action.AutoLogin{}) }
func (s *Service) ClearAuthError() { s.store.Dispatch(action.ClearAuthError{}) }

// === Task intents ===

// LoadTasks requests userID's stored tasks.
func (s *Service) LoadTasks(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return validate.ErrMissingUser
	}
	s.store.Dispatch(action.LoadTasks{UserID: userID})
	return nil
}

// AddTask validates req and requests its creation. The due date may lie in
// the past here; only the form restricts it.
func (s *Service) AddTask(req model.CreateTaskRequest) error {
	if err := validate.CreateRequest(req); err != nil {
		return err
	}
	s.store.Dispatch(action.AddTask{Request: req})
	return nil
}

// UpdateTask validates changes and requests they be merged into task id.
func (s *Service) UpdateTask(id string, changes model.TaskChanges) error {
	if id == "" {
		return fmt.Errorf("update task: empty id")
	}
	if err := validate.Changes(changes); err != nil {
		return err
	}
	s.store.Dispatch(action.UpdateTask{ID: id, Changes: changes})
	return nil
}

func (s *Service) DeleteTask(id string) { s.store.Dispatch(action.DeleteTask{ID: id}) }

// ToggleTaskCompletion flips task id, stamping it with the current time.
func (s *Service) ToggleTaskCompletion(id string) {
	s.store.Dispatch(action.ToggleTaskCompletion{ID: id, At: s.now().Truncate(persist.TimePrecision)})
}

func (s *Service) ClearTasks()          { s.store.Dispatch(action.ClearTasks{}) }
func (s *Service) SelectTask(id string) { s.store.Dispatch(action.SelectTask{ID: id}) }
func (s *Service) ClearTaskError()      { s.store.Dispatch(action.ClearTaskError{}) }

// === Identity views ===

func (s *Service) CurrentUser() *model.User { return selector.User(s.store.State().Auth) }
func (s *Service) IsAuthenticated() bool    { return selector.IsAuthenticated(s.store.State().Auth) }
func (s *Service) UserID() string           { return selector.UserID(s.store.State().Auth) }
func (s *Service) UserEmail() string        { return selector.UserEmail(s.store.State().Auth) }
func (s *Service) UserName() string         { return selector.UserName(s.store.State().Auth) }
func (s *Service) AuthLoading() bool        { return s.store.State().Auth.Loading }
func (s *Service) AuthError() string        { return s.store.State().Auth.Error }

// === Task views ===
// Returned slices are shared and must not be modified.

func (s *Service) AllTasks() []model.Task {
	return s.views.AllTasks(s.store.State().Tasks)
}

// TasksForActiveUser returns the logged-in user's tasks, or nothing when
// logged out.
func (s *Service) TasksForActiveUser() []model.Task {
	st := s.store.State()
	uid := selector.UserID(st.Auth)
	if uid == "" {
		return nil
	}
	return s.views.TasksByUser(st.Tasks, uid)
}

func (s *Service) CompletedTasks() []model.Task {
	return s.views.CompletedTasks(s.store.State().Tasks)
}

func (s *Service) PendingTasks() []model.Task {
	return s.views.PendingTasks(s.store.State().Tasks)
}

func (s *Service) OverdueTasks() []model.Task {
	return s.views.OverdueTasks(s.store.State().Tasks)
}

func (s *Service) TasksDueToday() []model.Task {
	return s.views.TasksDueToday(s.store.State().Tasks)
}

func (s *Service) TasksByPriority(p int) []model.Task {
	return s.views.TasksByPriority(s.store.State().Tasks, p)
}

func (s *Service) TasksByUserAndStatus(userID string, completed bool) []model.Task {
	return s.views.TasksByUserAndStatus(s.store.State().Tasks, userID, completed)
}

func (s *Service) TaskByID(id string) (model.Task, bool) {
	return selector.TaskByID(s.store.State().Tasks, id)
}

func (s *Service) SelectedTask() (model.Task, bool) {
	return selector.SelectedTask(s.store.State().Tasks)
}

func (s *Service) TaskTotal() int    { return selector.TaskTotal(s.store.State().Tasks) }
func (s *Service) TaskLoading() bool { return s.store.State().Tasks.Loading }
func (s *Service) TaskError() string { return s.store.State().Tasks.Error }

// Package reducer holds the pure state transition functions for the
// identity and task slices.
package reducer

import "github.com/nhle/taskstate/internal/action"

// AppState is the whole application state.
type AppState struct {
	Auth  AuthState
	Tasks TaskState
}

// InitialState returns the startup state.
func InitialState() AppState {
	return AppState{
		Auth:  InitialAuthState(),
		Tasks: InitialTaskState(),
	}
}

// Root applies a to both slices.
func Root(s AppState, a action.Action) AppState {
	return AppState{
		Auth:  Auth(s.Auth, a),
		Tasks: Tasks(s.Tasks, a),
	}
}

package reducer

import (
	"github.com/nhle/taskstate/internal/action"
	"github.com/nhle/taskstate/internal/model"
)

// AuthState is the identity/session slice. User is non-nil exactly when
// the session is authenticated. An empty Error means no error.
type AuthState struct {
	User    *model.User
	Loading bool
	Error   string
}

// InitialAuthState returns the unauthenticated, idle state.
func InitialAuthState() AuthState {
	return AuthState{}
}

// Auth computes the next identity state. Actions it does not handle return
// s unchanged.
func Auth(s AuthState, a action.Action) AuthState {
	switch a := a.(type) {
	case action.Login:
		s.Loading = true
		s.Error = ""
	case action.LoginSucceeded:
		s.User = userPtr(a.User)
		s.Loading = false
		s.Error = ""
	case action.LoginFailed:
		s.User = nil
		s.Loading = false
		s.Error = a.Error
	case action.Logout:
		s.Loading = true
	case action.LogoutSucceeded:
		s.User = nil
		s.Loading = false
		s.Error = ""
	case action.AutoLogin:
		s.Loading = true
	case action.AutoLoginSucceeded:
		s.User = userPtr(a.User)
		s.Loading = false
		s.Error = ""
	case action.AutoLoginFailed:
		s.User = nil
		s.Loading = false
		s.Error = ""
	case action.ClearAuthError:
		s.Error = ""
	}
	return s
}

// userPtr copies u so the state never aliases an action payload.
func userPtr(u model.User) *model.User {
	return &u
}

package selector

import (
	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/reducer"
)

// User returns a copy of the logged-in user, or nil.
func User(s reducer.AuthState) *model.User {
	if s.User == nil {
		return nil
	}
	u := *s.User
	return &u
}

// IsAuthenticated reports whether a user is present.
func IsAuthenticated(s reducer.AuthState) bool { return s.User != nil }

// UserID returns the logged-in user's id, or "".
func UserID(s reducer.AuthState) string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// UserEmail returns the logged-in user's email, or "".
func UserEmail(s reducer.AuthState) string {
	if s.User == nil {
		return ""
	}
	return s.User.Email
}

// UserName returns the logged-in user's display name, or "".
func UserName(s reducer.AuthState) string {
	if s.User == nil {
		return ""
	}
	return s.User.Name
}

// Package validate holds the boundary checks applied to user input before
// an intent is dispatched. Nothing that fails here reaches the store.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/taskstate/internal/model"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidDueDate     = errors.New("invalid due date")
	ErrMissingUser        = errors.New("missing user id")
	ErrNoChanges          = errors.New("no changes")
)

// Email checks that s is a bare address such as "alice@example.com" and
// returns it trimmed. Display-name forms ("Alice <alice@example.com>") are
// rejected.
func Email(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: required", ErrInvalidEmail)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	if addr.Name != "" || addr.Address != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	local, domain, _ := strings.Cut(addr.Address, "@")
	if local == "" || domain == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	return s, nil
}

// Title requires 1 to model.TitleMaxLen characters, not all whitespace.
func Title(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: required", ErrInvalidTitle)
	}
	if n := utf8.RuneCountInString(s); n > model.TitleMaxLen {
		return fmt.Errorf("%w: %d characters, max %d", ErrInvalidTitle, n, model.TitleMaxLen)
	}
	return nil
}

// Description allows up to model.DescriptionMaxLen characters.
func Description(s string) error {
	if n := utf8.RuneCountInString(s); n > model.DescriptionMaxLen {
		return fmt.Errorf("%w: %d characters, max %d", ErrInvalidDescription, n, model.DescriptionMaxLen)
	}
	return nil
}

// Priority requires a value in [model.PriorityMin, model.PriorityMax].
func Priority(p int) error {
	if p < model.PriorityMin || p > model.PriorityMax {
		return fmt.Errorf("%w: %d not in %d-%d", ErrInvalidPriority, p, model.PriorityMin, model.PriorityMax)
	}
	return nil
}

// DueDate requires due to fall on or after the local calendar day of now.
// Only the task form applies it; the core accepts past dates.
func DueDate(due, now time.Time) error {
	if due.IsZero() {
		return fmt.Errorf("%w: required", ErrInvalidDueDate)
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if due.Before(today) {
		return fmt.Errorf("%w: %s is in the past", ErrInvalidDueDate, due.Format(time.DateOnly))
	}
	return nil
}

// CreateRequest checks every field of a new task except the due-date
// window.
func CreateRequest(r model.CreateTaskRequest) error {
	if err := Title(r.Title); err != nil {
		return err
	}
	if err := Description(r.Description); err != nil {
		return err
	}
	if err := Priority(r.Priority); err != nil {
		return err
	}
	if r.DueDate.IsZero() {
		return fmt.Errorf("%w: required", ErrInvalidDueDate)
	}
	if strings.TrimSpace(r.UserID) == "" {
		return ErrMissingUser
	}
	return nil
}

// Changes checks the fields present in c.
func Changes(c model.TaskChanges) error {
	if c.IsEmpty() {
		return ErrNoChanges
	}
	if c.Title != nil {
		if err := Title(*c.Title); err != nil {
			return err
		}
	}
	if c.Description != nil {
		if err := Description(*c.Description); err != nil {
			return err
		}
	}
	if c.Priority != nil {
		if err := Priority(*c.Priority); err != nil {
			return err
		}
	}
	if c.DueDate != nil && c.DueDate.IsZero() {
		return fmt.Errorf("%w: required", ErrInvalidDueDate)
	}
	return nil
}

package model

import (
	"cmp"
	"time"
)

// Priority bounds (higher number = higher priority).
const (
	PriorityMin    = 1
	PriorityLow    = 2
	PriorityMedium = 3
	PriorityHigh   = 4
	PriorityMax    = 5
)

// Field length limits enforced at the input boundary.
const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 500
)

// Task is a single todo item owned by one user.
type Task struct {
	// ID is the unique identifier generated at creation.
	ID string `json:"id"`

	// Title is the short summary, 1 to TitleMaxLen characters.
	Title string `json:"title"`

	// Description is optional free text, at most DescriptionMaxLen characters.
	Description string `json:"description,omitempty"`

	// Priority is in [PriorityMin, PriorityMax].
	Priority int `json:"priority"`

	// DueDate is the calendar day the task is due.
	DueDate time.Time `json:"dueDate"`

	// Completed reports whether the task has been checked off.
	Completed bool `json:"completed"`

	// UserID is the owning user's ID. Never empty once created.
	UserID string `json:"userId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateTaskRequest carries the fields supplied when adding a task.
type CreateTaskRequest struct {
	Title       string
	Description string
	Priority    int
	DueDate     time.Time
	UserID      string
}

// TaskChanges is a partial update. Nil fields are left untouched.
type TaskChanges struct {
	Title       *string
	Description *string
	Priority    *int
	DueDate     *time.Time
	Completed   *bool
}

// IsEmpty reports whether no field is set.
func (c TaskChanges) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.Priority == nil &&
		c.DueDate == nil && c.Completed == nil
}

// Apply returns t with the non-nil fields of c merged in. ID, UserID and
// timestamps are never changed.
func (c TaskChanges) Apply(t Task) Task {
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.DueDate != nil {
		t.DueDate = *c.DueDate
	}
	if c.Completed != nil {
		t.Completed = *c.Completed
	}
	return t
}

// CompareTasks orders tasks by due date ascending, then priority descending,
// then creation time ascending.
func CompareTasks(a, b Task) int {
	if c := a.DueDate.Compare(b.DueDate); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

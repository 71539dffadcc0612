// Package persist maps in-memory state to the durable key/value schema:
//
//	currentUser      JSON {id, email, name?, createdAt}
//	tasks_<userId>   JSON array of tasks, dates as ISO-8601 strings
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/store"
)

// CurrentUserKey holds the logged-in identity.
const CurrentUserKey = "currentUser"

// TaskKeyPrefix prefixes every per-user task partition key.
const TaskKeyPrefix = "tasks_"

// isoLayout matches the millisecond UTC form browsers emit for dates.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// TimePrecision is the finest instant isoLayout keeps. Timestamps stamped
// at this precision survive a save and load unchanged.
const TimePrecision = time.Millisecond

// TaskKey returns the partition key for userID.
func TaskKey(userID string) string { return TaskKeyPrefix + userID }

// Adapter reads and writes identity and task partitions. A nil storage, or
// one that reports store.ErrUnavailable, turns reads into empty results
// and writes into no-ops.
type Adapter struct {
	tasks    store.Storage
	identity store.Storage
	logger   *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithIdentityStorage keeps the identity key in a separate backend.
func WithIdentityStorage(s store.Storage) AdapterOption {
	return func(a *Adapter) { a.identity = s }
}

// WithAdapterLogger sets the logger.
func WithAdapterLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter returns an Adapter over s. The identity key is stored in s as
// well unless WithIdentityStorage says otherwise.
func NewAdapter(s store.Storage, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		tasks:    s,
		identity: s,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// storedUser is the wire form of model.User.
type storedUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// storedTask is the wire form of model.Task.
type storedTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
	DueDate     string `json:"dueDate"`
	Completed   bool   `json:"completed"`
	UserID      string `json:"userId"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func unavailable(s store.Storage, err error) bool {
	return s == nil || errors.Is(err, store.ErrUnavailable)
}

// LoadIdentity returns the stored user, or nil if none is stored, the
// record is unreadable, or the storage is unavailable.
func (a *Adapter) LoadIdentity(ctx context.Context) *model.User {
	if a.identity == nil {
		return nil
	}
	raw, err := a.identity.Get(ctx, CurrentUserKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrUnavailable) {
			a.logger.Warn("reading stored identity", "error", err)
		}
		return nil
	}

	u, err := DecodeUser(raw)
	if err != nil {
		a.logger.Warn("decoding stored identity", "error", err)
		return nil
	}
	return u
}

// SaveIdentity stores u under CurrentUserKey.
func (a *Adapter) SaveIdentity(ctx context.Context, u model.User) error {
	if a.identity == nil {
		return nil
	}
	raw, err := EncodeUser(u)
	if err != nil {
		return err
	}
	if err := a.identity.Set(ctx, CurrentUserKey, raw); err != nil && !unavailable(a.identity, err) {
		return fmt.Errorf("saving identity: %w", err)
	}
	return nil
}

// ClearIdentity removes the stored user.
func (a *Adapter) ClearIdentity(ctx context.Context) error {
	if a.identity == nil {
		return nil
	}
	if err := a.identity.Remove(ctx, CurrentUserKey); err != nil && !unavailable(a.identity, err) {
		return fmt.Errorf("clearing identity: %w", err)
	}
	return nil
}

// LoadTasks returns userID's stored tasks. A missing partition or an
// unavailable storage yields an empty slice.
func (a *Adapter) LoadTasks(ctx context.Context, userID string) ([]model.Task, error) {
	if a.tasks == nil {
		return []model.Task{}, nil
	}
	raw, err := a.tasks.Get(ctx, TaskKey(userID))
	if errors.Is(err, store.ErrNotFound) || unavailable(a.tasks, err) {
		return []model.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading tasks for %s: %w", userID, err)
	}

	tasks, err := DecodeTasks(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding tasks for %s: %w", userID, err)
	}
	return tasks, nil
}

// SaveTasksForAllUsers partitions tasks by owner and overwrites each
// owner's partition. Owners absent from tasks are left untouched.
func (a *Adapter) SaveTasksForAllUsers(ctx context.Context, tasks []model.Task) error {
	if a.tasks == nil {
		return nil
	}
	parts := PartitionByUser(tasks)

	owners := make([]string, 0, len(parts))
	for userID := range parts {
		owners = append(owners, userID)
	}
	slices.Sort(owners)

	var errs []error
	for _, userID := range owners {
		raw, err := EncodeTasks(parts[userID])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := a.tasks.Set(ctx, TaskKey(userID), raw); err != nil {
			if unavailable(a.tasks, err) {
				return nil
			}
			errs = append(errs, fmt.Errorf("saving tasks for %s: %w", userID, err))
		}
	}
	return errors.Join(errs...)
}

// ClearTasksForUser removes userID's partition.
func (a *Adapter) ClearTasksForUser(ctx context.Context, userID string) error {
	if a.tasks == nil {
		return nil
	}
	if err := a.tasks.Remove(ctx, TaskKey(userID)); err != nil && !unavailable(a.tasks, err) {
		return fmt.Errorf("clearing tasks for %s: %w", userID, err)
	}
	return nil
}

// StoredUsers lists the user ids that have a task partition.
func (a *Adapter) StoredUsers(ctx context.Context) ([]string, error) {
	if a.tasks == nil {
		return nil, nil
	}
	keys, err := a.tasks.Keys(ctx, TaskKeyPrefix)
	if unavailable(a.tasks, err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing task partitions: %w", err)
	}
	users := make([]string, 0, len(keys))
	for _, k := range keys {
		users = append(users, strings.TrimPrefix(k, TaskKeyPrefix))
	}
	return users, nil
}

// PartitionByUser groups tasks by UserID, preserving their relative order.
func PartitionByUser(tasks []model.Task) map[string][]model.Task {
	parts := make(map[string][]model.Task)
	for _, t := range tasks {
		parts[t.UserID] = append(parts[t.UserID], t)
	}
	return parts
}

// EncodeUser serializes u to the stored JSON form.
func EncodeUser(u model.User) (string, error) {
	b, err := json.Marshal(storedUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: FormatTime(u.CreatedAt),
	})
	if err != nil {
		return "", fmt.Errorf("encoding identity: %w", err)
	}
	return string(b), nil
}

// DecodeUser parses the stored JSON form of a user.
func DecodeUser(raw string) (*model.User, error) {
	var su storedUser
	if err := json.Unmarshal([]byte(raw), &su); err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}
	if su.ID == "" {
		return nil, fmt.Errorf("parsing identity: missing id")
	}
	created, err := parseTime(su.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing identity createdAt: %w", err)
	}
	return &model.User{
		ID:        su.ID,
		Email:     su.Email,
		Name:      su.Name,
		CreatedAt: created,
	}, nil
}

// EncodeTasks serializes tasks to the stored JSON array form.
func EncodeTasks(tasks []model.Task) (string, error) {
	out := make([]storedTask, len(tasks))
	for i, t := range tasks {
		out[i] = storedTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			DueDate:     FormatTime(t.DueDate),
			Completed:   t.Completed,
			UserID:      t.UserID,
			CreatedAt:   FormatTime(t.CreatedAt),
			UpdatedAt:   FormatTime(t.UpdatedAt),
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding tasks: %w", err)
	}
	return string(b), nil
}

// DecodeTasks parses the stored JSON array form, rebuilding date fields.
func DecodeTasks(raw string) ([]model.Task, error) {
	var in []storedTask
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("parsing tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(in))
	for _, st := range in {
		due, err := parseTime(st.DueDate)
		if err != nil {
			return nil, fmt.Errorf("task %s dueDate: %w", st.ID, err)
		}
		created, err := parseTime(st.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("task %s createdAt: %w", st.ID, err)
		}
		updated, err := parseTime(st.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("task %s updatedAt: %w", st.ID, err)
		}
		tasks = append(tasks, model.Task{
			ID:          st.ID,
			Title:       st.Title,
			Description: st.Description,
			Priority:    st.Priority,
			DueDate:     due,
			Completed:   st.Completed,
			UserID:      st.UserID,
			CreatedAt:   created,
			UpdatedAt:   updated,
		})
	}
	return tasks, nil
}

// FormatTime renders t in the stored date form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// parseTime accepts RFC 3339 with or without fractional seconds, and a
// bare calendar date.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

package tasklist

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskstate/internal/keys"
	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/theme"
)

// Source provides the task views the list can show.
type Source interface {
	TasksForActiveUser() []model.Task
	PendingTasks() []model.Task
	CompletedTasks() []model.Task
	OverdueTasks() []model.Task
	TasksDueToday() []model.Task
}

// Filter selects which view the list shows.
type Filter int

const (
	FilterAll Filter = iota
	FilterPending
	FilterCompleted
	FilterOverdue
	FilterToday
)

var filterNames = []string{"All", "Pending", "Completed", "Overdue", "Due today"}

func (f Filter) String() string {
	if f < 0 || int(f) >= len(filterNames) {
		return "?"
	}
	return filterNames[f]
}

// Next returns the filter after f, wrapping around.
func (f Filter) Next() Filter {
	return (f + 1) % Filter(len(filterNames))
}

// Tasks returns the tasks src holds for f.
func (f Filter) Tasks(src Source) []model.Task {
	switch f {
	case FilterPending:
		return src.PendingTasks()
	case FilterCompleted:
		return src.CompletedTasks()
	case FilterOverdue:
		return src.OverdueTasks()
	case FilterToday:
		return src.TasksDueToday()
	default:
		return src.TasksForActiveUser()
	}
}

// Requests emitted for the app to act on.
type (
	ToggleRequest struct{ ID string }
	EditRequest   struct{ Task model.Task }
	DeleteRequest struct{ ID string }
	SelectRequest struct{ ID string }
	NewRequest    struct{}
	LogoutRequest struct{}
)

// Model is the main task list view component.
type Model struct {
	list   list.Model
	source Source
	keys   *keys.KeyMap
	filter Filter
	now    func() time.Time
	width  int
	height int
}

// New creates a new task list model reading from src.
func New(src Source, k *keys.KeyMap, now func() time.Time, width, height int) Model {
	if now == nil {
		now = time.Now
	}
	l := list.New([]list.Item{}, TaskDelegate{now: now}, width, height)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	m := Model{
		list:   l,
		source: src,
		keys:   k,
		now:    now,
		width:  width,
		height: height,
	}
	m.Refresh()
	return m
}

// Filter returns the active filter.
func (m Model) Filter() Filter { return m.filter }

// Items returns the tasks currently listed.
func (m Model) Items() []model.Task {
	items := m.list.Items()
	out := make([]model.Task, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(TaskItem); ok {
			out = append(out, ti.Task)
		}
	}
	return out
}

// Selected returns the task under the cursor.
func (m Model) Selected() (model.Task, bool) {
	ti, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return ti.Task, true
}

// Refresh reloads the items from the source, keeping the cursor on the same
// task when it is still listed.
func (m *Model) Refresh() {
	prev, hadPrev := m.Selected()
	now := m.now()
	tasks := m.filter.Tasks(m.source)

	items := make([]list.Item, len(tasks))
	cursor := 0
	for i, t := range tasks {
		items[i] = newTaskItem(t, now)
		if hadPrev && t.ID == prev.ID {
			cursor = i
		}
	}
	m.list.SetItems(items)
	m.list.Title = "Tasks · " + m.filter.String()
	if len(items) > 0 {
		m.list.Select(cursor)
	}
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if cmd, handled := m.handleKeys(msg); handled {
			return m, cmd
		}
	}

	before, _ := m.Selected()
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if after, ok := m.Selected(); ok && after.ID != before.ID {
		cmd = tea.Batch(cmd, emit(SelectRequest{ID: after.ID}))
	}
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Filter):
		m.filter = m.filter.Next()
		m.Refresh()
		return nil, true
	case key.Matches(msg, m.keys.New):
		return emit(NewRequest{}), true
	case key.Matches(msg, m.keys.Logout):
		return emit(LogoutRequest{}), true
	}

	t, ok := m.Selected()
	if !ok {
		return nil, false
	}
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return emit(ToggleRequest{ID: t.ID}), true
	case key.Matches(msg, m.keys.Edit):
		return emit(EditRequest{Task: t}), true
	case key.Matches(msg, m.keys.Delete):
		return emit(DeleteRequest{ID: t.ID}), true
	}
	return nil, false
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// View renders the task list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter != FilterAll {
		return style.Render("No " + m.filter.String() + " tasks.\nPress f to change the filter.")
	}
	return style.Render("No tasks yet.\n\nPress n to add one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

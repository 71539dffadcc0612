package tasklist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task    model.Task
	Overdue bool
	Today   bool
}

// newTaskItem classifies t against the day containing now.
func newTaskItem(t model.Task, now time.Time) TaskItem {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	return TaskItem{
		Task:    t,
		Overdue: !t.Completed && t.DueDate.Before(start),
		Today:   !t.Completed && !t.DueDate.Before(start) && t.DueDate.Before(end),
	}
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns the optional description.
func (i TaskItem) Description() string { return i.Task.Description }

// TaskDelegate implements list.ItemDelegate for rendering task rows.
type TaskDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d TaskDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d TaskDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d TaskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row.
func (d TaskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(ti, index == m.Index(), d.now()))
}

func renderRow(ti TaskItem, selected bool, now time.Time) string {
	t := ti.Task

	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = theme.CompletedStyle.Render(title)
	}

	pri := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))

	due := theme.DueStyle(ti.Overdue, ti.Today).Render(dueLabel(t.DueDate, now))
	marker := ""
	if ti.Overdue {
		marker = theme.DueStyle(true, false).Render(" OVERDUE")
	}

	line := fmt.Sprintf("%s %s %s  %s%s", check, pri, title, due, marker)
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// dueLabel describes due relative to the day containing now.
func dueLabel(due, now time.Time) string {
	if due.IsZero() {
		return ""
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	dy, dm, dd := due.In(now.Location()).Date()
	day := time.Date(dy, dm, dd, 0, 0, 0, 0, now.Location())

	days := int(day.Sub(today).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("in %dd", days)
	case days < -1 && days > -7:
		return fmt.Sprintf("%dd ago", -days)
	default:
		return day.Format("Jan 02")
	}
}

// priorityLabel returns a short label for the given priority level.
func priorityLabel(p int) string {
	if p < model.PriorityMin || p > model.PriorityMax {
		return "P?"
	}
	return fmt.Sprintf("P%d", p)
}

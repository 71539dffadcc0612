package taskform

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/theme"
	"github.com/nhle/taskstate/internal/validate"
)

// DateLayout is the format the due date field accepts.
const DateLayout = time.DateOnly

var errDateFormat = errors.New("use YYYY-MM-DD")

// CreatedMsg is sent when the create form is submitted.
type CreatedMsg struct {
	Request model.CreateTaskRequest
}

// UpdatedMsg is sent when the edit form is submitted with at least one
// changed field.
type UpdatedMsg struct {
	ID      string
	Changes model.TaskChanges
}

// CancelMsg is sent when the form is aborted or submitted unchanged.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    int
	dueDate     string
	completed   bool
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	original model.Task
	editMode bool
	userID   string
	now      func() time.Time
	width    int
	height   int
}

// New creates a new task form model. now decides what "today" means for
// the due date check.
func New(now func() time.Time, width, height int) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium},
		now:    now,
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new task owned by userID. The due
// date defaults to today.
func (m *Model) StartCreate(userID string) tea.Cmd {
	m.editMode = false
	m.original = model.Task{}
	m.userID = userID
	*m.fb = formBindings{
		priority: model.PriorityMedium,
		dueDate:  m.now().Format(DateLayout),
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with t's current values.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.editMode = true
	m.original = t
	m.userID = t.UserID
	*m.fb = formBindings{
		title:       t.Title,
		description: t.Description,
		priority:    t.Priority,
		dueDate:     t.DueDate.In(m.now().Location()).Format(DateLayout),
		completed:   t.Completed,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.submit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render(titleText)

	return theme.PanelStyle.Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			CharLimit(model.TitleMaxLen).
			Value(&m.fb.title).
			Validate(validate.Title),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			CharLimit(model.DescriptionMaxLen).
			Value(&m.fb.description).
			Validate(validate.Description),
		huh.NewSelect[int]().
			Title("Priority").
			Options(priorityOptions()...).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD").
			Value(&m.fb.dueDate).
			Validate(m.validateDue),
	}
	if m.editMode {
		fields = append(fields,
			huh.NewConfirm().
				Title("Completed").
				Value(&m.fb.completed),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func priorityOptions() []huh.Option[int] {
	labels := map[int]string{
		model.PriorityMin:    "1 - Lowest",
		model.PriorityLow:    "2 - Low",
		model.PriorityMedium: "3 - Medium",
		model.PriorityHigh:   "4 - High",
		model.PriorityMax:    "5 - Urgent",
	}
	opts := make([]huh.Option[int], 0, len(labels))
	for p := model.PriorityMax; p >= model.PriorityMin; p-- {
		opts = append(opts, huh.NewOption(labels[p], p))
	}
	return opts
}

// validateDue accepts today or later for new tasks. An edit may keep the
// date the task already has.
func (m Model) validateDue(s string) error {
	due, err := m.parseDue(s)
	if err != nil {
		return err
	}
	if m.editMode && due.Equal(m.originalDay()) {
		return nil
	}
	return validate.DueDate(due, m.now())
}

func (m Model) parseDue(s string) (time.Time, error) {
	due, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), m.now().Location())
	if err != nil {
		return time.Time{}, errDateFormat
	}
	return due, nil
}

func (m Model) originalDay() time.Time {
	loc := m.now().Location()
	y, mo, d := m.original.DueDate.In(loc).Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, loc)
}

func (m Model) submit() tea.Cmd {
	due, err := m.parseDue(m.fb.dueDate)
	if err != nil {
		return func() tea.Msg { return CancelMsg{} }
	}

	title := strings.TrimSpace(m.fb.title)
	desc := strings.TrimSpace(m.fb.description)

	if !m.editMode {
		req := model.CreateTaskRequest{
			Title:       title,
			Description: desc,
			Priority:    m.fb.priority,
			DueDate:     due,
			UserID:      m.userID,
		}
		return func() tea.Msg { return CreatedMsg{Request: req} }
	}

	changes := m.changes(title, desc, due)
	if changes.IsEmpty() {
		return func() tea.Msg { return CancelMsg{} }
	}
	id := m.original.ID
	return func() tea.Msg { return UpdatedMsg{ID: id, Changes: changes} }
}

// changes returns only the fields that differ from the task being edited.
func (m Model) changes(title, desc string, due time.Time) model.TaskChanges {
	var c model.TaskChanges
	o := m.original
	if title != o.Title {
		c.Title = &title
	}
	if desc != o.Description {
		c.Description = &desc
	}
	if p := m.fb.priority; p != o.Priority {
		c.Priority = &p
	}
	if !due.Equal(m.originalDay()) {
		c.DueDate = &due
	}
	if done := m.fb.completed; done != o.Completed {
		c.Completed = &done
	}
	return c
}

func (m Model) formWidth() int {
	return min(max(m.width-8, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-6, 12)
}

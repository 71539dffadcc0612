package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskstate/internal/keys"
	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/ui"
	helpview "github.com/nhle/taskstate/internal/ui/help"
	"github.com/nhle/taskstate/internal/ui/login"
	"github.com/nhle/taskstate/internal/ui/taskform"
	"github.com/nhle/taskstate/internal/ui/tasklist"
)

// Backend is the subset of service.Service the UI drives.
type Backend interface {
	tasklist.Source

	Subscribe(fn func()) func()

	Login(email string) error
	Logout()
	AutoLogin()
	ClearAuthError()

	LoadTasks(userID string) error
	AddTask(req model.CreateTaskRequest) error
	UpdateTask(id string, changes model.TaskChanges) error
	DeleteTask(id string)
	ToggleTaskCompletion(id string)
	SelectTask(id string)
	ClearTaskError()

	CurrentUser() *model.User
	AuthLoading() bool
	AuthError() string
	TaskLoading() bool
	TaskError() string
	TaskTotal() int
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewList
	ViewForm
	ViewHelp
)

// Model is the root Bubble Tea model. It routes input to the active screen
// and re-reads the backend whenever the store changes.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	backend      Backend
	watch        *watcher
	keys         *keys.KeyMap
	loginView    login.Model
	taskList     tasklist.Model
	formView     taskform.Model
	helpView     helpview.Model
	loadedFor    string
	notice       string
	ready        bool
}

// New creates the root model over b. now is the clock used for due-date
// rendering and form checks.
func New(b Backend, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewLogin,
		layout:      ui.NewLayout(80, 24),
		backend:     b,
		watch:       newWatcher(b.Subscribe),
		keys:        k,
		loginView:   login.New(80, 21),
		taskList:    tasklist.New(b, k, now, 80, 21),
		formView:    taskform.New(now, 80, 21),
		helpView:    helpview.New(k, 80, 21),
	}
}

// Init starts listening for changes and restores any stored session.
func (m Model) Init() tea.Cmd {
	b := m.backend
	return tea.Batch(
		m.watch.wait(),
		m.loginView.Start(),
		func() tea.Msg {
			b.AutoLogin()
			return nil
		},
	)
}

// Close stops the change subscription.
func (m Model) Close() {
	m.watch.stop()
}

// CurrentView returns the active screen.
func (m Model) CurrentView() ViewState { return m.currentView }

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.taskList.SetSize(w, h)
		m.formView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case stateChangedMsg:
		cmd := m.syncFromBackend()
		return m, tea.Batch(cmd, m.watch.wait())

	case login.SubmitMsg:
		if err := m.backend.Login(msg.Email); err != nil {
			m.notice = err.Error()
			return m, m.loginView.Start()
		}
		m.notice = ""
		return m, nil

	case tasklist.ToggleRequest:
		m.backend.ToggleTaskCompletion(msg.ID)
		return m, nil

	case tasklist.DeleteRequest:
		m.backend.DeleteTask(msg.ID)
		return m, nil

	case tasklist.SelectRequest:
		m.backend.SelectTask(msg.ID)
		return m, nil

	case tasklist.NewRequest:
		m.notice = ""
		m.currentView = ViewForm
		return m, m.formView.StartCreate(m.loadedFor)

	case tasklist.EditRequest:
		m.notice = ""
		m.backend.SelectTask(msg.Task.ID)
		m.currentView = ViewForm
		return m, m.formView.StartEdit(msg.Task)

	case tasklist.LogoutRequest:
		m.backend.Logout()
		return m, nil

	case taskform.CreatedMsg:
		m.currentView = ViewList
		if err := m.backend.AddTask(msg.Request); err != nil {
			m.notice = err.Error()
		}
		return m, nil

	case taskform.UpdatedMsg:
		m.currentView = ViewList
		if err := m.backend.UpdateTask(msg.ID, msg.Changes); err != nil {
			m.notice = err.Error()
		}
		return m, nil

	case taskform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys covers the keys that act outside a focused input.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, true

	case ViewForm:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = ViewList
			return nil, true
		}

	case ViewList:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return tea.Quit, true
		case key.Matches(msg, m.keys.Help):
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return nil, true
		case key.Matches(msg, m.keys.Back):
			m.notice = ""
			m.backend.ClearTaskError()
			m.backend.ClearAuthError()
			m.backend.SelectTask("")
			return nil, true
		}
	}
	return nil, false
}

// syncFromBackend moves between the login and list screens as the session
// changes, and requests the user's tasks once per login.
func (m *Model) syncFromBackend() tea.Cmd {
	user := m.backend.CurrentUser()
	if user == nil {
		m.loadedFor = ""
		if m.currentView != ViewLogin {
			m.currentView = ViewLogin
			m.taskList.Refresh()
			return m.loginView.Start()
		}
		return m.loginView.SetLoading(m.backend.AuthLoading())
	}

	if m.loadedFor != user.ID {
		m.loadedFor = user.ID
		if err := m.backend.LoadTasks(user.ID); err != nil {
			m.notice = err.Error()
		}
	}
	if m.currentView == ViewLogin {
		m.currentView = ViewList
		m.loginView.SetLoading(false)
	}
	m.taskList.Refresh()
	return nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewForm:
		m.formView, cmd = m.formView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Task State", m.sessionLabel())
	banner := m.layout.RenderBanner(m.bannerText())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, banner, m.renderContent(), statusBar)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewForm:
		return m.formView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return m.taskList.View()
	}
}

func (m Model) sessionLabel() string {
	user := m.backend.CurrentUser()
	if user == nil {
		if m.backend.AuthLoading() {
			return "signing in..."
		}
		return "signed out"
	}
	label := fmt.Sprintf("%s <%s> · %d tasks", user.Name, user.Email, m.backend.TaskTotal())
	if m.backend.TaskLoading() {
		label += " · saving..."
	}
	return label
}

// bannerText picks the error to show: a rejected input first, then the
// session error, then the task error.
func (m Model) bannerText() string {
	switch {
	case m.notice != "":
		return m.notice
	case m.backend.AuthError() != "":
		return m.backend.AuthError()
	default:
		return m.backend.TaskError()
	}
}

func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter: sign in  ctrl+c: quit"
	case ViewForm:
		return "tab: next field  enter: submit  esc: cancel"
	case ViewHelp:
		return "?/esc: back"
	default:
		return m.helpView.ShortView()
	}
}

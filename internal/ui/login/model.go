// Package login is the sign-in screen: one email field, then a spinner while
// the login is in flight.
package login

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskstate/internal/theme"
	"github.com/nhle/taskstate/internal/validate"
)

// SubmitMsg carries the validated email address.
type SubmitMsg struct {
	Email string
}

// Model is the Bubble Tea model for the login screen.
type Model struct {
	form    *huh.Form
	email   *string
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

// New creates a login screen.
func New(width, height int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)
	return Model{
		email:   new(string),
		spinner: s,
		width:   width,
		height:  height,
	}
}

// Start resets the form, keeping the last email typed.
func (m *Model) Start() tea.Cmd {
	m.loading = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(m.email).
				Validate(func(s string) error {
					_, err := validate.Email(s)
					return err
				}),
		),
	).WithWidth(min(max(m.width-8, 30), 60)).WithShowHelp(false)
	return m.form.Init()
}

// SetLoading switches between the form and the spinner.
func (m *Model) SetLoading(loading bool) tea.Cmd {
	if loading == m.loading {
		return nil
	}
	m.loading = loading
	if loading {
		return m.spinner.Tick
	}
	return m.Start()
}

// Loading reports whether the spinner is shown.
func (m Model) Loading() bool { return m.loading }

// Update handles messages for the login screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		email, err := validate.Email(*m.email)
		if err != nil {
			return m, m.Start()
		}
		m.loading = true
		return m, tea.Batch(
			func() tea.Msg { return SubmitMsg{Email: email} },
			m.spinner.Tick,
		)
	}
	return m, cmd
}

// View renders the login screen.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Sign in")

	body := ""
	switch {
	case m.loading:
		body = m.spinner.View() + " Signing in as " + *m.email + "..."
	case m.form != nil:
		body = m.form.View()
	}
	hint := theme.HelpStyle.Render("Any well-formed address works. enter to submit, ctrl+c to quit.")

	panel := theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, body, "", hint))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

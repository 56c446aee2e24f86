package compose

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/theme"
)

// SubmitMsg is dispatched when the user submits the compose form.
type SubmitMsg struct {
	Draft model.ComposeDraft
}

// CancelMsg is dispatched when the user abandons the draft.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	to      string
	subject string
	body    string
}

// Model is the Bubble Tea model for the compose form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	from   string
	width  int
	height int
}

// New creates a new compose form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes a fresh draft from the given sender address.
func (m *Model) Start(from string) tea.Cmd {
	m.from = from
	m.fb.to = ""
	m.fb.subject = ""
	m.fb.body = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the compose form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		draft := model.ComposeDraft{
			To:      strings.TrimSpace(m.fb.to),
			Subject: strings.TrimSpace(m.fb.subject),
			Body:    m.fb.body,
		}
		return m, func() tea.Msg { return SubmitMsg{Draft: draft} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the compose form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	fromStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		MarginBottom(1)

	content := titleStyle.Render("New Message") + "\n" +
		fromStyle.Render("From: "+m.from) + "\n" +
		m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("To").
				Placeholder("recipient@example.com").
				Value(&m.fb.to).
				Validate(validateRecipient),
			huh.NewInput().
				Title("Subject").
				Placeholder("Optional subject...").
				Value(&m.fb.subject),
			huh.NewText().
				Title("Body").
				Placeholder("Write your message...").
				Value(&m.fb.body).
				Validate(validateRequired("Body")),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateRecipient(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("To is required")
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 || !strings.Contains(s[at+1:], ".") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

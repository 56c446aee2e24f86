package login

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/theme"
)

// Mode represents the current state of the login view.
type Mode int

const (
	ModeLoadingDomains Mode = iota // Waiting for the provider's domain list
	ModeForm                       // Address form is active
	ModeSubmitting                 // Account creation/login in flight
	ModeError                      // Domain load or login failed
)

// SubmitMsg carries the chosen address parts to the parent.
type SubmitMsg struct {
	LocalPart string
	Domain    string
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	localPart string
	domain    string
}

// Model is the Bubble Tea model for the address creation screen.
type Model struct {
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	domains []model.Domain
	errMsg  string
	spinner spinner.Model
	width   int
	height  int
}

// New creates a new login view model.
func New(width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeLoadingDomains,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init starts the loading spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetDomains installs the selectable domains and activates the form.
// Only the first few provider domains are offered.
func (m *Model) SetDomains(domains []model.Domain) tea.Cmd {
	if len(domains) > model.MaxSelectableDomains {
		domains = domains[:model.MaxSelectableDomains]
	}
	m.domains = domains
	if len(domains) == 0 {
		m.mode = ModeError
		m.errMsg = "The provider returned no usable domains."
		return nil
	}

	m.mode = ModeForm
	m.fb.localPart = randomLocalPart()
	m.fb.domain = domains[0].Domain
	m.form = m.buildForm()
	return m.form.Init()
}

// SetError switches the view into the error state.
func (m *Model) SetError(err error) {
	m.mode = ModeError
	m.errMsg = err.Error()
}

// Retry re-enters the form after a failed attempt, keeping the typed
// values when the form still exists.
func (m *Model) Retry(errMsg string) tea.Cmd {
	if len(m.domains) == 0 {
		m.mode = ModeError
		m.errMsg = errMsg
		return nil
	}
	m.mode = ModeForm
	m.errMsg = errMsg
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.mode == ModeLoadingDomains || m.mode == ModeSubmitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeForm && msg.String() == "ctrl+r" {
			m.fb.localPart = randomLocalPart()
			m.form = m.buildForm()
			return m, m.form.Init()
		}
	}

	if m.mode != ModeForm || m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		local := strings.ToLower(strings.TrimSpace(m.fb.localPart))
		domain := m.fb.domain
		m.mode = ModeSubmitting
		return m, tea.Batch(
			m.spinner.Tick,
			func() tea.Msg {
				return SubmitMsg{LocalPart: local, Domain: domain}
			},
		)
	}
	if m.form.State == huh.StateAborted {
		// There is no earlier screen to fall back to; restart the form.
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	return m, cmd
}

// View renders the login view.
func (m Model) View() string {
	centered := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	switch m.mode {
	case ModeLoadingDomains:
		return centered.Render(m.spinner.View() + " Fetching available domains...")

	case ModeSubmitting:
		return centered.Render(m.spinner.View() + " Creating your address...")

	case ModeError:
		return centered.Render(
			theme.ErrorStyle.Render("Could not set up an address") +
				"\n\n" + m.errMsg +
				"\n\n" + theme.HelpStyle.Render("press q to quit"),
		)
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var sections []string
	sections = append(sections, titleStyle.Render("Pick a disposable address"))
	if m.errMsg != "" {
		sections = append(sections, theme.ErrorStyle.Render(m.errMsg))
	}
	sections = append(sections, m.form.View())
	sections = append(sections,
		theme.HelpStyle.Render("ctrl+r randomizes the username"),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the login view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[string], len(m.domains))
	for i, d := range m.domains {
		opts[i] = huh.NewOption("@"+d.Domain, d.Domain)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Placeholder("username").
				Value(&m.fb.localPart).
				Validate(validateLocalPart),
			huh.NewSelect[string]().
				Title("Domain").
				Options(opts...).
				Value(&m.fb.domain),
		),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

// randomLocalPart proposes a short random username.
func randomLocalPart() string {
	return "user-" + uuid.NewString()[:8]
}

func validateLocalPart(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Username is required")
	}
	for _, r := range s {
		valid := (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '.' || r == '-' || r == '_' || r == '+'
		if !valid {
			return fmt.Errorf("only letters, digits and . - _ + are allowed")
		}
	}
	return nil
}

package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// knownCommands are the commands the root model executes, in the order
// they are suggested.
var knownCommands = []string{
	"refresh", "compose", "copy", "logout", "help", "quit",
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if cmd != "" {
				return m, func() tea.Msg {
					return CommandMsg(cmd)
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command")
	input := m.input.View()
	suggestions := theme.HelpStyle.Render(m.suggestionLine())

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, "", suggestions)

	return theme.ReaderPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// suggestionLine lists the commands matching what has been typed so
// far, or all of them while the input is empty.
func (m Model) suggestionLine() string {
	typed := strings.ToLower(strings.TrimSpace(m.input.Value()))

	var matches []string
	for _, c := range knownCommands {
		if strings.HasPrefix(c, typed) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return "no matching command"
	}
	return strings.Join(matches, " · ")
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

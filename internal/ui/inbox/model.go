package inbox

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/sync"
	"github.com/nhle/tempmail/internal/theme"
)

// SelectedMessageMsg is sent when the user opens a message.
type SelectedMessageMsg struct {
	ID string
}

// DeleteRequestMsg is sent when the user asks to delete the focused message.
type DeleteRequestMsg struct {
	ID string
}

// Model is the inbox list view component.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	messages    []model.MessageSummary
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new inbox model.
func New(k *keys.KeyMap, width, height int) Model {
	delegate := ItemDelegate{}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "filter by subject or sender..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init is a no-op; the poller owns data loading.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetMessages replaces the full message set and re-applies the active
// filter. The cursor stays on the same row index where possible.
func (m *Model) SetMessages(msgs []model.MessageSummary) {
	m.messages = msgs
	m.applyFilter()
}

// Searching reports whether the filter input currently has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SelectedID returns the id of the focused message, or "" when the
// list is empty.
func (m Model) SelectedID() string {
	item, ok := m.list.SelectedItem().(MessageItem)
	if !ok {
		return ""
	}
	return item.Message.ID
}

// applyFilter narrows the visible rows to the current query.
func (m *Model) applyFilter() {
	visible := sync.Filter(m.messages, m.query)
	items := make([]list.Item, len(visible))
	for i, msg := range visible {
		items[i] = MessageItem{Message: msg}
	}
	m.list.SetItems(items)
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(keyMsg)
		}
		return m.handleNormalKeys(keyMsg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while the filter box has focus.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		m.applyFilter()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.query = m.searchInput.Value()
	m.applyFilter()
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-filter) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		id := m.SelectedID()
		if id == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedMessageMsg{ID: id}
		}

	case key.Matches(msg, m.keys.Delete):
		id := m.SelectedID()
		if id == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			return DeleteRequestMsg{ID: id}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		m.query = ""
		m.applyFilter()
		return m, m.searchInput.Focus()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when the inbox is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render("No matching messages.\nPress / and enter to clear the filter.")
	}

	return style.Render(
		"Inbox is empty.\n\n" +
			"Mail sent to your address shows up here within seconds.",
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/session"
	"github.com/nhle/tempmail/internal/store"
	appsync "github.com/nhle/tempmail/internal/sync"
	"github.com/nhle/tempmail/internal/theme"
	"github.com/nhle/tempmail/internal/ui"
	"github.com/nhle/tempmail/internal/ui/command"
	composeview "github.com/nhle/tempmail/internal/ui/compose"
	helpview "github.com/nhle/tempmail/internal/ui/help"
	"github.com/nhle/tempmail/internal/ui/inbox"
	loginview "github.com/nhle/tempmail/internal/ui/login"
	"github.com/nhle/tempmail/internal/ui/reader"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewInbox
	ViewReader
	ViewCompose
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that manages view routing,
// layout, the session lifecycle, and the inbox poller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	cfg      *model.AppConfig
	sessions *session.Store
	client   *mailtm.Client
	cache    store.Store

	loginView   loginview.Model
	inboxView   inbox.Model
	readerView  reader.Model
	composeView composeview.Model
	helpView    helpview.Model
	commandView command.Model

	session *model.Session
	poller  *appsync.Poller

	ready     bool
	sending   bool
	newCount  int
	snapshot  appsync.Snapshot
	statusMsg string
	statusErr bool
}

// New creates the root application model.
func New(
	cfg *model.AppConfig,
	sessions *session.Store,
	client *mailtm.Client,
	cache store.Store,
) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewLogin,
		keys:        k,
		cfg:         cfg,
		sessions:    sessions,
		client:      client,
		cache:       cache,
		loginView:   loginview.New(80, 24),
		inboxView:   inbox.New(k, 80, 24),
		readerView:  reader.New(k, 80, 24),
		composeView: composeview.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
}

// Init restores a persisted session if one exists and fetches the
// domain list for the login form in parallel.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadSession(),
		m.loadDomains(),
		m.loginView.Init(),
		tickEvery(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.inboxView.SetSize(contentWidth, contentHeight)
		m.readerView.SetSize(contentWidth, contentHeight)
		m.composeView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case tickMsg:
		// Periodic redraw keeps the relative last-checked indicator live.
		if m.poller != nil {
			m.snapshot = m.poller.Snapshot()
		}
		return m, tickEvery()

	case sessionLoadedMsg:
		if !msg.ok {
			return m, nil
		}
		return m.startSession(msg.session)

	case domainsLoadedMsg:
		if msg.err != nil {
			if m.currentView == ViewLogin && m.session == nil {
				m.loginView.SetError(msg.err)
			}
			return m, nil
		}
		if m.session != nil {
			// Already restored a session; the form is not needed.
			return m, nil
		}
		return m, m.loginView.SetDomains(msg.domains)

	case loginview.SubmitMsg:
		return m, m.doLogin(msg.LocalPart, msg.Domain)

	case loginResultMsg:
		if msg.err != nil {
			return m, m.loginView.Retry(loginFailureText(msg.err))
		}
		return m.startSession(msg.session)

	case cachedMessagesMsg:
		// Cached rows only seed the list until the first live fetch lands.
		if m.snapshot.LastChecked.IsZero() && len(msg.messages) > 0 {
			m.inboxView.SetMessages(msg.messages)
		}
		return m, nil

	case unseenCountMsg:
		// The cached count seeds the badge; the first live fetch replaces it.
		if m.snapshot.LastChecked.IsZero() {
			m.newCount = msg.count
		}
		return m, nil

	case appsync.ResultMsg:
		if m.poller == nil {
			return m, nil
		}
		m.snapshot = m.poller.Snapshot()
		m.newCount = m.snapshot.NewCount
		m.inboxView.SetMessages(m.snapshot.Messages)
		if msg.Err != nil {
			m.setStatus(fetchFailureText(msg.Err), true)
		} else if m.statusErr {
			m.clearStatus()
		}
		return m, m.poller.WaitForNextResult()

	case inbox.SelectedMessageMsg:
		m.previousView = m.currentView
		m.currentView = ViewReader
		m.readerView.SetLoading(true)
		m.newCount = 0
		if m.poller != nil {
			m.poller.MarkViewed()
		}
		return m, tea.Batch(
			m.openDetail(msg.ID),
			m.markSeen(msg.ID),
		)

	case appsync.DetailMsg:
		if msg.Err != nil {
			m.currentView = ViewInbox
			m.setStatus("Could not load message: "+msg.Err.Error(), true)
			return m, nil
		}
		m.readerView.SetMessage(msg.Detail)
		return m, nil

	case inbox.DeleteRequestMsg:
		return m.deleteMessage(msg.ID)

	case reader.DeleteRequestMsg:
		return m.deleteMessage(msg.ID)

	case appsync.DeleteResultMsg:
		if msg.Err != nil {
			m.setStatus("Delete failed: "+msg.Err.Error(), true)
			return m, nil
		}
		if m.readerView.MessageID() == msg.ID {
			m.readerView.Clear()
			m.currentView = ViewInbox
		}
		m.setStatus("Message deleted", false)
		return m, nil

	case composeview.SubmitMsg:
		if m.poller == nil {
			return m, nil
		}
		if m.sending {
			m.currentView = ViewInbox
			m.setStatus("A send is already in progress", true)
			return m, nil
		}
		m.sending = true
		m.currentView = ViewInbox
		m.setStatus("Sending...", false)
		return m, m.poller.Send(msg.Draft.To, msg.Draft.Subject, msg.Draft.Body)

	case composeview.CancelMsg:
		m.currentView = ViewInbox
		return m, nil

	case appsync.SendResultMsg:
		m.sending = false
		if msg.Err != nil {
			m.setStatus("Send failed: "+msg.Err.Error(), true)
			return m, nil
		}
		m.setStatus("Message sent", false)
		return m, nil

	case addressCopiedMsg:
		if msg.err != nil {
			m.setStatus("Copy failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("Address copied to clipboard", false)
		}
		return m, nil

	case reader.BackMsg:
		m.currentView = ViewInbox
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case logoutDoneMsg:
		return m.finishLogout(msg.err)

	case tea.KeyMsg:
		if handled, next, cmd := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to the active sub-view.
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the focused
// view. Text inputs keep priority: while the inbox filter, a form, or
// the command palette is active, only ctrl-chords pass through.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.stopPoller()
		return true, m, tea.Quit

	case "ctrl+l":
		if m.session != nil {
			return true, m, m.doLogout()
		}
		return false, m, nil
	}

	if m.textInputActive() {
		return false, m, nil
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewInbox || m.currentView == ViewLogin {
			m.stopPoller()
			return true, m, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		if m.currentView == ViewInbox || m.currentView == ViewReader {
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return true, m, nil
		}

	case ":":
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
			return true, m, nil
		}
		if m.currentView == ViewInbox || m.currentView == ViewReader {
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return true, m, m.commandView.Focus()
		}

	case "r":
		if m.currentView == ViewInbox && m.poller != nil {
			m.poller.Refresh()
			return true, m, nil
		}

	case "n":
		if m.currentView == ViewInbox && m.session != nil {
			if m.sending {
				m.setStatus("A send is already in progress", true)
				return true, m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCompose
			return true, m, m.composeView.Start(m.session.Address)
		}

	case "y":
		if m.session != nil &&
			(m.currentView == ViewInbox || m.currentView == ViewReader) {
			return true, m, copyAddress(m.session.Address)
		}
	}

	return false, m, nil
}

// textInputActive reports whether the focused view owns the keyboard.
func (m Model) textInputActive() bool {
	switch m.currentView {
	case ViewLogin, ViewCompose, ViewCommand:
		return true
	case ViewInbox:
		return m.inboxView.Searching()
	}
	return false
}

// startSession installs a live session and brings up the inbox backed
// by a fresh poller.
func (m Model) startSession(sess *model.Session) (tea.Model, tea.Cmd) {
	m.session = sess
	m.currentView = ViewInbox
	m.newCount = 0
	m.snapshot = appsync.Snapshot{}
	m.clearStatus()

	interval := time.Duration(m.cfg.Display.PollIntervalSec) * time.Second
	m.poller = appsync.New(
		m.client.WithToken(sess.Token),
		m.cache,
		sess.Address,
		interval,
	)

	return m, tea.Batch(
		m.loadCachedMessages(sess.Address),
		m.loadUnseenCount(sess.Address),
		m.poller.Start(),
	)
}

// deleteMessage asks the poller to delete a message remotely.
func (m Model) deleteMessage(id string) (tea.Model, tea.Cmd) {
	if m.poller == nil {
		return m, nil
	}
	return m, m.poller.Delete(id)
}

// finishLogout tears down session state and returns to the login form.
func (m Model) finishLogout(err error) (tea.Model, tea.Cmd) {
	m.session = nil
	m.poller = nil
	m.sending = false
	m.newCount = 0
	m.snapshot = appsync.Snapshot{}
	m.readerView.Clear()
	m.inboxView.SetMessages(nil)
	m.currentView = ViewLogin

	m.loginView = loginview.New(m.layout.ContentWidth(), m.layout.ContentHeight())
	if err != nil {
		m.setStatus("Logout cleanup incomplete: "+err.Error(), true)
	} else {
		m.clearStatus()
	}

	return m, tea.Batch(m.loginView.Init(), m.loadDomains())
}

// stopPoller stops the background poller if one is running.
func (m *Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "refresh", "sync":
		if m.poller != nil {
			m.poller.Refresh()
		}
		return m, nil
	case "quit", "q":
		m.stopPoller()
		return m, tea.Quit
	case "logout":
		if m.session != nil {
			return m, m.doLogout()
		}
		return m, nil
	case "compose", "new":
		if m.session != nil && !m.sending {
			m.previousView = m.currentView
			m.currentView = ViewCompose
			return m, m.composeView.Start(m.session.Address)
		}
		return m, nil
	case "copy":
		if m.session != nil {
			return m, copyAddress(m.session.Address)
		}
		return m, nil
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	default:
		m.setStatus(fmt.Sprintf("Unknown command: %s", cmd), true)
		return m, nil
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewReader:
		m.readerView, cmd = m.readerView.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewInbox:
		return m.inboxView.View()
	case ViewReader:
		return m.readerView.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// headerTitle shows the active address and the count of messages that
// arrived since the inbox was last viewed.
func (m Model) headerTitle() string {
	if m.session == nil {
		return "tempmail"
	}
	title := "tempmail  " + theme.AddressStyle.Render(m.session.Address)
	if m.newCount > 0 {
		title += fmt.Sprintf(" [%d new]", m.newCount)
	}
	return title
}

// syncStatus returns a short string describing the poller state.
func (m Model) syncStatus() string {
	if m.poller == nil {
		return ""
	}

	snap := m.snapshot
	style := theme.SyncStyle(snap.Fetching, snap.LastErr != nil)

	switch {
	case snap.Fetching:
		return style.Render("syncing...")
	case snap.LastErr != nil:
		return style.Render("⚠ offline " + lastCheckedText(snap.LastChecked))
	case snap.LastChecked.IsZero():
		return style.Render("starting...")
	default:
		return style.Render("✓ " + lastCheckedText(snap.LastChecked))
	}
}

// lastCheckedText formats the age of the last poll attempt.
func lastCheckedText(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	age := time.Since(t)
	if age < time.Second {
		return "just now"
	}
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	return fmt.Sprintf("%dm ago", int(age.Minutes()))
}

// statusLine prefers a transient status message over key hints.
func (m Model) statusLine() string {
	if m.statusMsg != "" {
		if m.statusErr {
			return theme.ErrorStyle.Render(m.statusMsg)
		}
		return theme.SuccessStyle.Render(m.statusMsg)
	}
	return m.keyHints()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter submit | ctrl+r randomize | q quit"
	case ViewReader:
		return "esc back | d delete | y copy address | j/k scroll"
	case ViewCompose:
		return "enter submit | esc cancel"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close | enter execute | esc back"
	default:
		return "q quit | ? help | enter open | n compose | d delete | / filter | r refresh | y copy"
	}
}

// setStatus records a transient status bar message.
func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
}

// clearStatus removes the transient status bar message.
func (m *Model) clearStatus() {
	m.statusMsg = ""
	m.statusErr = false
}

package app

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/session"
)

// tickMsg drives the periodic redraw of relative timestamps.
type tickMsg time.Time

// sessionLoadedMsg carries a restored session from the keyring.
type sessionLoadedMsg struct {
	session *model.Session
	ok      bool
}

// domainsLoadedMsg carries the provider's selectable domains.
type domainsLoadedMsg struct {
	domains []model.Domain
	err     error
}

// loginResultMsg carries the outcome of an account create/login attempt.
type loginResultMsg struct {
	session *model.Session
	err     error
}

// cachedMessagesMsg carries the offline snapshot read at startup.
type cachedMessagesMsg struct {
	messages []model.MessageSummary
}

// unseenCountMsg carries the cached unseen total read at startup.
type unseenCountMsg struct {
	count int
}

// addressCopiedMsg reports the clipboard write outcome.
type addressCopiedMsg struct {
	err error
}

// logoutDoneMsg reports that session teardown finished.
type logoutDoneMsg struct {
	err error
}

// tickEvery schedules the next redraw tick.
func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadSession restores a persisted session from the keyring, if any.
func (m Model) loadSession() tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		sess, err := sessions.Current()
		return sessionLoadedMsg{session: sess, ok: err == nil}
	}
}

// loadDomains fetches the provider's domain list for the login form.
func (m Model) loadDomains() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		domains, err := client.Domains(ctx)
		return domainsLoadedMsg{domains: domains, err: err}
	}
}

// doLogin creates or recovers the account behind the chosen address.
func (m Model) doLogin(localPart, domain string) tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sess, err := sessions.CreateOrLogin(ctx, localPart, domain)
		return loginResultMsg{session: sess, err: err}
	}
}

// loadCachedMessages reads the offline snapshot for a mailbox.
func (m Model) loadCachedMessages(mailbox string) tea.Cmd {
	if m.cache == nil {
		return nil
	}
	cache := m.cache
	return func() tea.Msg {
		msgs, err := cache.Messages(context.Background(), mailbox)
		if err != nil {
			return cachedMessagesMsg{}
		}
		return cachedMessagesMsg{messages: msgs}
	}
}

// loadUnseenCount reads how many cached messages were never opened, so
// a restarted client can show the unread badge before the first poll.
func (m Model) loadUnseenCount(mailbox string) tea.Cmd {
	if m.cache == nil {
		return nil
	}
	cache := m.cache
	return func() tea.Msg {
		count, err := cache.UnseenCount(context.Background(), mailbox)
		if err != nil {
			return unseenCountMsg{}
		}
		return unseenCountMsg{count: count}
	}
}

// openDetail fetches a full message through the poller.
func (m Model) openDetail(id string) tea.Cmd {
	if m.poller == nil {
		return nil
	}
	return m.poller.GetDetail(id)
}

// markSeen records locally that a message was opened.
func (m Model) markSeen(id string) tea.Cmd {
	if m.session == nil || m.cache == nil {
		return nil
	}
	cache := m.cache
	mailbox := m.session.Address
	return func() tea.Msg {
		_ = cache.MarkSeen(context.Background(), mailbox, id)
		return nil
	}
}

// copyAddress puts the active address on the system clipboard.
func copyAddress(address string) tea.Cmd {
	return func() tea.Msg {
		return addressCopiedMsg{err: clipboard.WriteAll(address)}
	}
}

// doLogout stops polling and discards the persisted session along with
// the cached snapshot for its mailbox.
func (m Model) doLogout() tea.Cmd {
	m.stopPoller()

	sessions := m.sessions
	cache := m.cache
	var mailbox string
	if m.session != nil {
		mailbox = m.session.Address
	}

	return func() tea.Msg {
		err := sessions.Logout()
		if mailbox != "" && cache != nil {
			if clearErr := cache.Clear(context.Background(), mailbox); err == nil {
				err = clearErr
			}
		}
		return logoutDoneMsg{err: err}
	}
}

// loginFailureText turns login errors into a short actionable line.
func loginFailureText(err error) string {
	switch {
	case errors.Is(err, session.ErrAddressTaken):
		return "That address is already taken. Try a different username."
	case mailtm.IsAuthError(err):
		return "The provider rejected the credentials for this address."
	default:
		return "Could not create the address: " + err.Error()
	}
}

// fetchFailureText turns poll errors into a short status line.
func fetchFailureText(err error) string {
	if mailtm.IsAuthError(err) {
		return "Session expired. Log out (ctrl+l) and pick a new address."
	}
	return "Inbox refresh failed: " + err.Error()
}

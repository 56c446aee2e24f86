package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/model"
)

// fetchTimeout is the maximum time allowed for a single list fetch.
const fetchTimeout = 15 * time.Second

// Client is the subset of the provider client the poller needs.
type Client interface {
	Messages(ctx context.Context) ([]model.MessageSummary, error)
	Message(ctx context.Context, id string) (*model.MessageDetail, error)
	DeleteMessage(ctx context.Context, id string) error
	SendMessage(ctx context.Context, from, to, subject, body string) (*mailtm.SentMessage, error)
}

// Cache persists the latest message list between runs. All cache
// failures are non-fatal to the poll loop.
type Cache interface {
	ReplaceMessages(ctx context.Context, address string, msgs []model.MessageSummary) error
}

// Snapshot is the poller's externally visible state. Readers always see
// a fully formed value; the held list is replaced atomically, never
// mutated in place.
type Snapshot struct {
	Messages    []model.MessageSummary
	LastChecked time.Time
	LastErr     error
	Fetching    bool
	NewCount    int
}

// ResultMsg is a tea.Msg sent whenever a list fetch settles. The UI
// re-reads Snapshot() when it arrives.
type ResultMsg struct {
	Err      error
	NewCount int
}

// DetailMsg carries the outcome of an on-demand single message fetch.
type DetailMsg struct {
	Detail *model.MessageDetail
	Err    error
}

// DeleteResultMsg carries the outcome of a message deletion.
type DeleteResultMsg struct {
	ID  string
	Err error
}

// SendResultMsg carries the outcome of an outbound send.
type SendResultMsg struct {
	Err error
}

// Poller keeps an eventually fresh view of the active mailbox by
// fetching the message list on a fixed interval. Its lifetime is bound
// to the session: it is created on login and stopped on logout, after
// which no fetch result is ever applied.
type Poller struct {
	client   Client
	cache    Cache
	address  string
	interval time.Duration

	resultCh  chan ResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	running bool
	stopped bool

	// nextSeq numbers fetches in start order; appliedSeq is the highest
	// sequence whose result has been applied. A fetch that completes
	// after a newer one has already been applied is discarded, so the
	// held list always reflects the most recently started fetch that
	// managed to finish.
	nextSeq    uint64
	appliedSeq uint64
	inFlight   int

	messages    []model.MessageSummary
	knownIDs    map[string]bool
	lastChecked time.Time
	lastErr     error
	newCount    int
}

// New creates a poller for the given mailbox. cache may be nil.
func New(client Client, cache Cache, address string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{
		client:    client,
		cache:     cache,
		address:   address,
		interval:  interval,
		resultCh:  make(chan ResultMsg, 16),
		triggerCh: make(chan struct{}, 16),
		stopCh:    make(chan struct{}),
		knownIDs:  make(map[string]bool),
	}
}

// Start launches the polling goroutine and returns the subscription
// command that delivers fetch results to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.run()

	return p.waitForResult()
}

// Stop halts the polling loop. In-flight fetch results arriving after
// Stop are discarded, never applied.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stopCh)
}

// Stopped reports whether the poller has been stopped.
func (p *Poller) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Refresh triggers an immediate out-of-cycle fetch. The ticker phase is
// left alone: the next scheduled tick fires when it would have anyway.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// Channel full; a fetch is already queued.
	}
}

// Snapshot returns the current view of the mailbox.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		Messages:    p.messages,
		LastChecked: p.lastChecked,
		LastErr:     p.lastErr,
		Fetching:    p.inFlight > 0,
		NewCount:    p.newCount,
	}
}

// MarkViewed resets the new-message counter shown in the header.
func (p *Poller) MarkViewed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.newCount = 0
}

// run is the polling loop. An initial fetch fires immediately; after
// that fetches start on every tick and on every manual trigger.
func (p *Poller) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.startFetch()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.startFetch()
		case <-p.triggerCh:
			p.startFetch()
		}
	}
}

// startFetch launches a numbered fetch in its own goroutine so a slow
// response never delays the next tick.
func (p *Poller) startFetch() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.nextSeq++
	seq := p.nextSeq
	p.inFlight++
	p.mu.Unlock()

	go p.fetch(seq)
}

// fetch performs a single list fetch and applies its result.
func (p *Poller) fetch(seq uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	msgs, err := p.client.Messages(ctx)
	p.apply(seq, msgs, err)
}

// apply merges a fetch result into the snapshot. Results from a stopped
// poller or superseded by a newer fetch are discarded.
func (p *Poller) apply(seq uint64, msgs []model.MessageSummary, err error) {
	p.mu.Lock()

	if p.inFlight > 0 {
		p.inFlight--
	}

	if p.stopped {
		p.mu.Unlock()
		return
	}
	if seq < p.appliedSeq {
		p.mu.Unlock()
		return
	}
	p.appliedSeq = seq

	p.lastChecked = time.Now()

	var fresh int
	if err != nil {
		// Keep the last good list; only the error indicator changes.
		p.lastErr = err
	} else {
		p.lastErr = nil
		for _, m := range msgs {
			if !p.knownIDs[m.ID] {
				fresh++
			}
		}
		// The first fetch of a session establishes the baseline and
		// does not count as new mail.
		if len(p.knownIDs) == 0 {
			fresh = 0
		}
		p.newCount += fresh
		p.knownIDs = make(map[string]bool, len(msgs))
		for _, m := range msgs {
			p.knownIDs[m.ID] = true
		}
		p.messages = msgs
	}

	cache := p.cache
	address := p.address
	p.mu.Unlock()

	if err == nil && cache != nil {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if cacheErr := cache.ReplaceMessages(cctx, address, msgs); cacheErr != nil {
			log.Printf("caching message snapshot: %v", cacheErr)
		}
		cancel()
	}

	p.sendResult(ResultMsg{Err: err, NewCount: fresh})
}

// sendResult sends a ResultMsg without blocking the fetch goroutine.
func (p *Poller) sendResult(msg ResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if the UI is not keeping up; the snapshot is already
		// updated and the next result re-triggers a render.
	}
}

// waitForResult returns a tea.Cmd that waits for the next fetch result.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult re-subscribes after a ResultMsg has been handled.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

// GetDetail fetches the full body of one message on demand. It does not
// touch the polling cycle or the held list. The result is dropped if
// the poller was stopped while the request was in flight.
func (p *Poller) GetDetail(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		detail, err := p.client.Message(ctx, id)
		if p.Stopped() {
			return nil
		}
		return DetailMsg{Detail: detail, Err: err}
	}
}

// Send submits an outbound message with the active mailbox as sender.
// A sent message is not a received one, so the held list is untouched.
func (p *Poller) Send(to, subject, body string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		_, err := p.client.SendMessage(ctx, p.address, to, subject, body)
		if p.Stopped() {
			return nil
		}
		return SendResultMsg{Err: err}
	}
}

// Delete removes a message remotely and, on success, triggers an
// immediate list refresh. The caller is responsible for clearing an
// open detail view showing the deleted id.
func (p *Poller) Delete(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		err := p.client.DeleteMessage(ctx, id)
		if p.Stopped() {
			return nil
		}
		if err == nil {
			p.Refresh()
		}
		return DeleteResultMsg{ID: id, Err: err}
	}
}

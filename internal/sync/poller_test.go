package sync

import (
	"context"
	"errors"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/model"
)

// fakeClient scripts provider responses for the poller.
type fakeClient struct {
	mu         gosync.Mutex
	listCalls  atomic.Int64
	listMsgs   []model.MessageSummary
	listErr    error
	detail     *model.MessageDetail
	detailErr  error
	deleteErr  error
	sendErr    error
	deletedIDs []string
}

func (f *fakeClient) Messages(_ context.Context) ([]model.MessageSummary, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listMsgs, f.listErr
}

func (f *fakeClient) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeClient) Message(_ context.Context, id string) (*model.MessageDetail, error) {
	return f.detail, f.detailErr
}

func (f *fakeClient) DeleteMessage(_ context.Context, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteErr
}

func (f *fakeClient) SendMessage(
	_ context.Context,
	from, to, subject, body string,
) (*mailtm.SentMessage, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &mailtm.SentMessage{ID: "sent-1"}, nil
}

func messages(ids ...string) []model.MessageSummary {
	msgs := make([]model.MessageSummary, len(ids))
	for i, id := range ids {
		msgs[i] = model.MessageSummary{
			ID:   id,
			From: model.Address{Address: "sender@example.com"},
		}
	}
	return msgs
}

func newTestPoller(t *testing.T, client Client) *Poller {
	t.Helper()
	p := New(client, nil, "me@example.com", 10*time.Millisecond)
	t.Cleanup(p.Stop)
	return p
}

func TestPollerAppliesFirstFetch(t *testing.T) {
	client := &fakeClient{listMsgs: messages("a", "b")}
	p := newTestPoller(t, client)

	cmd := p.Start()
	msg := cmd()

	result, ok := msg.(ResultMsg)
	if !ok {
		t.Fatalf("msg = %T, want ResultMsg", msg)
	}
	if result.Err != nil {
		t.Fatalf("result err = %v", result.Err)
	}

	snap := p.Snapshot()
	if len(snap.Messages) != 2 {
		t.Errorf("snapshot has %d messages, want 2", len(snap.Messages))
	}
	if snap.LastChecked.IsZero() {
		t.Error("LastChecked not updated after fetch")
	}
	if snap.LastErr != nil {
		t.Errorf("LastErr = %v, want nil", snap.LastErr)
	}
}

func TestPollerKeepsLastGoodListOnError(t *testing.T) {
	client := &fakeClient{listMsgs: messages("a")}
	p := newTestPoller(t, client)

	cmd := p.Start()
	cmd() // first fetch succeeds

	client.setListErr(errors.New("network down"))

	p.Refresh()
	msg := p.WaitForNextResult()()

	result, ok := msg.(ResultMsg)
	if !ok {
		t.Fatalf("msg = %T, want ResultMsg", msg)
	}
	if result.Err == nil {
		// A tick may have fired between the error being set and the
		// manual refresh; drain until the error result arrives.
		deadline := time.After(time.Second)
		for result.Err == nil {
			select {
			case <-deadline:
				t.Fatal("no failed fetch observed")
			default:
			}
			m := p.WaitForNextResult()()
			result, _ = m.(ResultMsg)
		}
	}

	snap := p.Snapshot()
	if len(snap.Messages) != 1 || snap.Messages[0].ID != "a" {
		t.Errorf("failed fetch must keep the last good list, got %v", snap.Messages)
	}
	if snap.LastErr == nil {
		t.Error("LastErr should record the failure")
	}
}

func TestPollerStopsAfterLogout(t *testing.T) {
	client := &fakeClient{listMsgs: messages("a")}
	p := newTestPoller(t, client)

	cmd := p.Start()
	cmd()
	p.Stop()

	calls := client.listCalls.Load()
	time.Sleep(50 * time.Millisecond)

	if got := client.listCalls.Load(); got != calls {
		t.Errorf("fetches continued after Stop: %d -> %d", calls, got)
	}
}

func TestStaleResultAfterStopIsDiscarded(t *testing.T) {
	client := &fakeClient{}
	p := New(client, nil, "me@example.com", time.Hour)

	p.Stop()
	p.apply(1, messages("late"), nil)

	snap := p.Snapshot()
	if snap.Messages != nil {
		t.Errorf("result applied after Stop: %v", snap.Messages)
	}
}

func TestOutOfOrderCompletionNewerFetchWins(t *testing.T) {
	client := &fakeClient{}
	p := New(client, nil, "me@example.com", time.Hour)
	defer p.Stop()

	// Fetch 2 (started later) completes first; fetch 1 straggles in
	// afterwards and must not clobber it.
	p.nextSeq = 2
	p.apply(2, messages("new-1", "new-2"), nil)
	p.apply(1, messages("old"), nil)

	snap := p.Snapshot()
	if len(snap.Messages) != 2 || snap.Messages[0].ID != "new-1" {
		t.Errorf("held list = %v, want the newer fetch's result", snap.Messages)
	}
}

func TestNewCountSkipsBaselineFetch(t *testing.T) {
	client := &fakeClient{}
	p := New(client, nil, "me@example.com", time.Hour)
	defer p.Stop()

	p.nextSeq = 1
	p.apply(1, messages("a", "b"), nil)
	if snap := p.Snapshot(); snap.NewCount != 0 {
		t.Errorf("baseline fetch NewCount = %d, want 0", snap.NewCount)
	}

	p.nextSeq = 2
	p.apply(2, messages("a", "b", "c"), nil)
	if snap := p.Snapshot(); snap.NewCount != 1 {
		t.Errorf("NewCount = %d, want 1", p.Snapshot().NewCount)
	}

	p.MarkViewed()
	if snap := p.Snapshot(); snap.NewCount != 0 {
		t.Errorf("NewCount after MarkViewed = %d, want 0", snap.NewCount)
	}
}

func TestDeleteReportsAndTriggersRefresh(t *testing.T) {
	client := &fakeClient{}
	p := New(client, nil, "me@example.com", time.Hour)
	defer p.Stop()

	msg := p.Delete("doomed")()

	result, ok := msg.(DeleteResultMsg)
	if !ok {
		t.Fatalf("msg = %T, want DeleteResultMsg", msg)
	}
	if result.ID != "doomed" || result.Err != nil {
		t.Errorf("result = %+v", result)
	}
	if len(client.deletedIDs) != 1 || client.deletedIDs[0] != "doomed" {
		t.Errorf("deleted ids = %v", client.deletedIDs)
	}
	if len(p.triggerCh) != 1 {
		t.Error("successful delete should queue an immediate refresh")
	}
}

func TestDeleteFailureDoesNotRefresh(t *testing.T) {
	client := &fakeClient{deleteErr: errors.New("boom")}
	p := New(client, nil, "me@example.com", time.Hour)
	defer p.Stop()

	msg := p.Delete("x")()

	result := msg.(DeleteResultMsg)
	if result.Err == nil {
		t.Error("expected delete error")
	}
	if len(p.triggerCh) != 0 {
		t.Error("failed delete must not trigger a refresh")
	}
}

func TestSendFailureLeavesSnapshotAlone(t *testing.T) {
	client := &fakeClient{sendErr: errors.New("network error")}
	p := New(client, nil, "me@example.com", time.Hour)
	defer p.Stop()

	p.nextSeq = 1
	p.apply(1, messages("a"), nil)

	msg := p.Send("to@example.com", "hi", "body")()

	result, ok := msg.(SendResultMsg)
	if !ok {
		t.Fatalf("msg = %T, want SendResultMsg", msg)
	}
	if result.Err == nil {
		t.Error("expected send error")
	}

	snap := p.Snapshot()
	if len(snap.Messages) != 1 {
		t.Errorf("send failure changed the held list: %v", snap.Messages)
	}
}

func TestDetailDroppedAfterStop(t *testing.T) {
	client := &fakeClient{detail: &model.MessageDetail{}}
	p := New(client, nil, "me@example.com", time.Hour)

	cmd := p.GetDetail("m1")
	p.Stop()

	if msg := cmd(); msg != nil {
		t.Errorf("detail delivered after Stop: %v", msg)
	}
}

// recordingCache captures snapshot writes from the poller.
type recordingCache struct {
	replaced atomic.Int64
}

func (c *recordingCache) ReplaceMessages(
	_ context.Context,
	address string,
	msgs []model.MessageSummary,
) error {
	c.replaced.Add(1)
	return nil
}

func TestPollerWritesCacheOnSuccess(t *testing.T) {
	client := &fakeClient{listMsgs: messages("a")}
	cache := &recordingCache{}
	p := New(client, cache, "me@example.com", 10*time.Millisecond)
	t.Cleanup(p.Stop)

	cmd := p.Start()
	cmd()

	if cache.replaced.Load() == 0 {
		t.Error("successful fetch should write the snapshot cache")
	}
}

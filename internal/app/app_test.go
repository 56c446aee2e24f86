package app

import (
	"testing"
	"time"

	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/session"
	appsync "github.com/nhle/tempmail/internal/sync"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	client := mailtm.NewClient("https://api.invalid", time.Second)
	cfg := &model.AppConfig{
		API:     model.APIConfig{BaseURL: "https://api.invalid", TimeoutSec: 1},
		Display: model.DisplayConfig{PollIntervalSec: 2},
	}
	return New(cfg, session.New(client), client, nil)
}

func detail(id string) *model.MessageDetail {
	return &model.MessageDetail{
		MessageSummary: model.MessageSummary{
			ID:      id,
			From:    model.Address{Address: "a@example.com"},
			Subject: "hello",
		},
		Text: "body",
	}
}

func TestDeleteClearsOpenReader(t *testing.T) {
	m := newTestModel(t)
	m.currentView = ViewReader
	m.readerView.SetMessage(detail("m1"))

	next, _ := m.Update(appsync.DeleteResultMsg{ID: "m1"})
	got := next.(Model)

	if got.readerView.MessageID() != "" {
		t.Errorf("reader still holds %q after its message was deleted", got.readerView.MessageID())
	}
	if got.currentView != ViewInbox {
		t.Errorf("currentView = %v, want ViewInbox", got.currentView)
	}
}

func TestDeleteKeepsUnrelatedReaderOpen(t *testing.T) {
	m := newTestModel(t)
	m.currentView = ViewReader
	m.readerView.SetMessage(detail("m1"))

	next, _ := m.Update(appsync.DeleteResultMsg{ID: "m2"})
	got := next.(Model)

	if got.readerView.MessageID() != "m1" {
		t.Errorf("reader lost its message: %q", got.readerView.MessageID())
	}
	if got.currentView != ViewReader {
		t.Errorf("currentView = %v, want ViewReader", got.currentView)
	}
}

func TestCachedUnseenCountSeedsBadge(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(unseenCountMsg{count: 3})
	got := next.(Model)

	if got.newCount != 3 {
		t.Errorf("newCount = %d, want the cached count before the first poll", got.newCount)
	}
}

func TestCachedUnseenCountIgnoredAfterFirstPoll(t *testing.T) {
	m := newTestModel(t)
	m.newCount = 1
	m.snapshot = appsync.Snapshot{LastChecked: time.Now()}

	next, _ := m.Update(unseenCountMsg{count: 3})
	got := next.(Model)

	if got.newCount != 1 {
		t.Errorf("newCount = %d, cached count overrode live data", got.newCount)
	}
}

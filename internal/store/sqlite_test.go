package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/store"
	"github.com/nhle/tempmail/tests/testutil"
)

const mailbox = "alice@example.com"

func summary(id, from, subject string) model.MessageSummary {
	return model.MessageSummary{
		ID:        id,
		From:      model.Address{Address: from},
		Subject:   subject,
		Intro:     "preview of " + subject,
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewStoreCreatesParentDirectories(t *testing.T) {
	// A first run points at a path under a data directory that does not
	// exist yet; opening the store must not require manual setup.
	dbPath := filepath.Join(t.TempDir(), "share", "tempmail", "cache.db")

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if err := s.ReplaceMessages(context.Background(), mailbox, []model.MessageSummary{
		summary("m1", "a@example.com", "hello"),
	}); err != nil {
		t.Fatalf("ReplaceMessages: %v", err)
	}
}

func TestReplaceAndReadBack(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msgs := []model.MessageSummary{
		summary("m2", "b@example.com", "second"),
		summary("m1", "a@example.com", "first"),
	}
	if err := s.ReplaceMessages(ctx, mailbox, msgs); err != nil {
		t.Fatalf("ReplaceMessages: %v", err)
	}

	got, err := s.Messages(ctx, mailbox)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("cached %d messages, want 2", len(got))
	}
	// Provider order is preserved, not re-sorted.
	if got[0].ID != "m2" || got[1].ID != "m1" {
		t.Errorf("order = %s, %s; want m2, m1", got[0].ID, got[1].ID)
	}
	if got[0].Subject != "second" || got[0].From.Address != "b@example.com" {
		t.Errorf("round-tripped message = %+v", got[0])
	}
}

func TestReplaceIsWholesale(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first := []model.MessageSummary{
		summary("m1", "a@example.com", "one"),
		summary("m2", "b@example.com", "two"),
	}
	if err := s.ReplaceMessages(ctx, mailbox, first); err != nil {
		t.Fatalf("ReplaceMessages: %v", err)
	}

	// m1 was deleted remotely; the next snapshot no longer contains it.
	second := []model.MessageSummary{
		summary("m2", "b@example.com", "two"),
	}
	if err := s.ReplaceMessages(ctx, mailbox, second); err != nil {
		t.Fatalf("ReplaceMessages: %v", err)
	}

	got, err := s.Messages(ctx, mailbox)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m2" {
		t.Errorf("cached list = %v, want only m2", got)
	}
}

func TestSeenFlagSurvivesReplace(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msgs := []model.MessageSummary{summary("m1", "a@example.com", "hello")}
	if err := s.ReplaceMessages(ctx, mailbox, msgs); err != nil {
		t.Fatalf("ReplaceMessages: %v", err)
	}
	if err := s.MarkSeen(ctx, mailbox, "m1"); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	// The provider still reports the message unseen; the local flag wins.
	if err := s.ReplaceMessages(ctx, mailbox, msgs); err != nil {
		t.Fatalf("ReplaceMessages: %v", err)
	}

	got, err := s.Messages(ctx, mailbox)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(got) != 1 || !got[0].Seen {
		t.Errorf("seen flag lost across replace: %+v", got)
	}
}

func TestUnseenCount(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msgs := []model.MessageSummary{
		summary("m1", "a@example.com", "one"),
		summary("m2", "b@example.com", "two"),
		summary("m3", "c@example.com", "three"),
	}
	if err := s.ReplaceMessages(ctx, mailbox, msgs); err != nil {
		t.Fatalf("ReplaceMessages: %v", err)
	}
	if err := s.MarkSeen(ctx, mailbox, "m2"); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	count, err := s.UnseenCount(ctx, mailbox)
	if err != nil {
		t.Fatalf("UnseenCount: %v", err)
	}
	if count != 2 {
		t.Errorf("UnseenCount = %d, want 2", count)
	}
}

func TestClearRemovesMailboxOnly(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	other := "bob@example.com"
	if err := s.ReplaceMessages(ctx, mailbox, []model.MessageSummary{
		summary("m1", "a@example.com", "one"),
	}); err != nil {
		t.Fatalf("ReplaceMessages: %v", err)
	}
	if err := s.ReplaceMessages(ctx, other, []model.MessageSummary{
		summary("m9", "z@example.com", "other mailbox"),
	}); err != nil {
		t.Fatalf("ReplaceMessages: %v", err)
	}

	if err := s.Clear(ctx, mailbox); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	got, err := s.Messages(ctx, mailbox)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("cleared mailbox still has %d messages", len(got))
	}

	kept, err := s.Messages(ctx, other)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("other mailbox lost its cache: %v", kept)
	}
}

func TestEmptyMailboxReadsEmpty(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.Messages(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty cache, got %v", got)
	}
}

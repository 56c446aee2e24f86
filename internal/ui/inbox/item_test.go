package inbox

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/model"
)

func TestRenderCollapsesMultilineIntro(t *testing.T) {
	item := MessageItem{Message: model.MessageSummary{
		ID:        "m1",
		From:      model.Address{Address: "a@example.com"},
		Subject:   "verification",
		Intro:     "Your code is 482913.\nIt expires\nin 10 minutes.",
		CreatedAt: time.Now(),
	}}

	l := list.New([]list.Item{item}, ItemDelegate{}, 120, 10)

	var buf strings.Builder
	ItemDelegate{}.Render(&buf, l, 0, item)
	line := buf.String()

	if strings.Contains(line, "\n") {
		t.Errorf("rendered row spans multiple lines: %q", line)
	}
	if !strings.Contains(line, "Your code is 482913. It expires in 10 minutes.") {
		t.Errorf("rendered row = %q, want the intro on one line", line)
	}
}

func TestRenderMissingSubjectPlaceholder(t *testing.T) {
	item := MessageItem{Message: model.MessageSummary{
		ID:   "m1",
		From: model.Address{Address: "a@example.com"},
		Seen: true,
	}}

	l := list.New([]list.Item{item}, ItemDelegate{}, 120, 10)

	var buf strings.Builder
	ItemDelegate{}.Render(&buf, l, 0, item)

	if !strings.Contains(buf.String(), noSubject) {
		t.Errorf("rendered row = %q, want %q placeholder", buf.String(), noSubject)
	}
}

func TestFilterMatchesSubjectAndSender(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetMessages([]model.MessageSummary{
		{ID: "m1", From: model.Address{Address: "noreply@shop.example"}, Subject: "Your order"},
		{ID: "m2", From: model.Address{Address: "alerts@bank.example"}, Subject: "Statement ready"},
	})

	m.query = "bank"
	m.applyFilter()

	items := m.list.Items()
	if len(items) != 1 {
		t.Fatalf("filtered to %d items, want 1", len(items))
	}
	if items[0].(MessageItem).Message.ID != "m2" {
		t.Errorf("kept %q, want m2", items[0].(MessageItem).Message.ID)
	}
}

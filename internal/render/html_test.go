package render

import (
	"strings"
	"testing"

	"github.com/nhle/tempmail/internal/model"
)

func TestToTextStripsScripts(t *testing.T) {
	html := `<html><head><style>body{color:red}</style></head>
		<body><p>Confirm your account</p><script>alert("x")</script></body></html>`

	text, err := ToText(html)
	if err != nil {
		t.Fatalf("ToText: %v", err)
	}

	if !strings.Contains(text, "Confirm your account") {
		t.Errorf("text %q lost the message content", text)
	}
	if strings.Contains(text, "alert") || strings.Contains(text, "color:red") {
		t.Errorf("text %q contains active/style content", text)
	}
}

func TestToTextPlainParagraphs(t *testing.T) {
	text, err := ToText("<p>Hello</p><p>World</p>")
	if err != nil {
		t.Fatalf("ToText: %v", err)
	}
	if !strings.Contains(text, "Hello") || !strings.Contains(text, "World") {
		t.Errorf("text = %q", text)
	}
}

func TestBodyPrefersHTML(t *testing.T) {
	detail := &model.MessageDetail{
		HTML: "<p>rich body</p>",
		Text: "plain body",
	}
	if got := Body(detail); !strings.Contains(got, "rich body") {
		t.Errorf("Body = %q, want converted html", got)
	}
}

func TestBodyFallsBackToText(t *testing.T) {
	detail := &model.MessageDetail{Text: "plain only"}
	if got := Body(detail); got != "plain only" {
		t.Errorf("Body = %q, want the literal text part", got)
	}
}

func TestBodyNil(t *testing.T) {
	if got := Body(nil); got != "" {
		t.Errorf("Body(nil) = %q", got)
	}
}

func TestPreviewCollapsesWhitespace(t *testing.T) {
	got := Preview("<div>Hello\n   <b>there</b>\n</div>", 40)
	if got != "Hello there" {
		t.Errorf("Preview = %q, want %q", got, "Hello there")
	}
}

func TestPreviewPlainTextIntro(t *testing.T) {
	// Provider intros are usually plain text with embedded newlines.
	got := Preview("Your code is 482913.\nIt expires in 10 minutes.", 60)
	if got != "Your code is 482913. It expires in 10 minutes." {
		t.Errorf("Preview = %q", got)
	}
}

func TestPreviewTruncates(t *testing.T) {
	got := Preview("<p>abcdefghij</p>", 5)
	if got != "abcde…" {
		t.Errorf("Preview = %q", got)
	}
}

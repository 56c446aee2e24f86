package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"

	"github.com/nhle/tempmail/internal/model"
)

// Provider-supplied HTML is untrusted content. It is never rendered as
// markup: active and layout-only nodes are stripped first, then the
// remainder is converted to plain terminal text.

// strippedSelectors are removed from the document before conversion.
const strippedSelectors = "script, style, head, meta, link, iframe, object, embed, form"

// Sanitize removes active content from an HTML fragment and returns the
// remaining markup.
func Sanitize(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing message html: %w", err)
	}

	doc.Find(strippedSelectors).Remove()

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serializing sanitized html: %w", err)
	}
	return out, nil
}

// ToText converts an untrusted HTML fragment to plain text suitable for
// a terminal viewport.
func ToText(html string) (string, error) {
	sanitized, err := Sanitize(html)
	if err != nil {
		return "", err
	}

	text, err := html2text.FromString(sanitized, html2text.Options{
		PrettyTables: false,
	})
	if err != nil {
		return "", fmt.Errorf("converting html to text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Body returns the displayable body of a message: HTML passed through
// the sanitizing conversion when present, otherwise the literal text
// part. A conversion failure falls back to the text part rather than
// showing raw markup.
func Body(detail *model.MessageDetail) string {
	if detail == nil {
		return ""
	}

	if detail.HTML != "" {
		if text, err := ToText(detail.HTML); err == nil && text != "" {
			return text
		}
	}
	return detail.Text
}

// Preview collapses an HTML or plain-text fragment into a single line
// of at most max runes, for inbox preview columns. Markup is stripped
// and runs of whitespace (including newlines) become single spaces.
func Preview(html string, max int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find(strippedSelectors).Remove()

	text := strings.Join(strings.Fields(doc.Text()), " ")
	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return text
}

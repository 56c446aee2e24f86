package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/render"
	"github.com/nhle/tempmail/internal/theme"
)

// noSubject is shown for messages that arrive without a subject line.
const noSubject = "(No Subject)"

// MessageItem wraps a model.MessageSummary so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.MessageSummary
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string {
	return i.Message.Subject + " " + i.Message.From.Address
}

// Title returns the subject line for the list.
func (i MessageItem) Title() string {
	if i.Message.Subject == "" {
		return noSubject
	}
	return i.Message.Subject
}

// Description returns a short summary line for the list.
func (i MessageItem) Description() string {
	return i.Message.From.Display()
}

// ItemDelegate implements list.ItemDelegate for rendering inbox rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single inbox row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}

	msg := mi.Message
	isSelected := index == m.Index()

	marker := " "
	if !msg.Seen {
		marker = theme.UnreadStyle.Render("●")
	}

	sender := theme.SenderStyle.Render(truncate(msg.From.Display(), 24))

	subject := msg.Subject
	if subject == "" {
		subject = noSubject
	}
	if !msg.Seen {
		subject = theme.UnreadStyle.Render(subject)
	}

	intro := ""
	if preview := render.Preview(msg.Intro, 48); preview != "" {
		intro = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(" " + preview)
	}

	timeStr := theme.TimestampStyle.Render(relativeTime(msg.CreatedAt))

	line := fmt.Sprintf("%s %s  %s%s  %s", marker, sender, subject, intro, timeStr)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// truncate limits s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}

package store

import (
	"context"

	"github.com/nhle/tempmail/internal/model"
)

// Store is the local snapshot cache: the last-known message list per
// mailbox, so a restarted client can show the inbox before the first
// poll lands. It is a cache of remote state, never the source of truth;
// every successful fetch replaces a mailbox's rows wholesale.
type Store interface {
	// ReplaceMessages replaces the cached list for a mailbox with the
	// given provider-ordered messages. Locally recorded seen flags are
	// carried over for ids that survive the replacement.
	ReplaceMessages(ctx context.Context, mailbox string, msgs []model.MessageSummary) error

	// Messages returns the cached list for a mailbox in provider order.
	Messages(ctx context.Context, mailbox string) ([]model.MessageSummary, error)

	// MarkSeen records that a cached message has been opened locally.
	MarkSeen(ctx context.Context, mailbox string, id string) error

	// UnseenCount returns how many cached messages have not been opened.
	UnseenCount(ctx context.Context, mailbox string) (int, error)

	// Clear drops all cached rows for a mailbox. Called on logout.
	Clear(ctx context.Context, mailbox string) error

	// Close releases the underlying database.
	Close() error
}

package model

import "time"

// Domain is a mail domain offered by the provider for new addresses.
type Domain struct {
	ID     string `json:"id"`
	Domain string `json:"domain"`
}

// MaxSelectableDomains caps how many provider domains are offered when
// creating an inbox.
const MaxSelectableDomains = 5

// Address is a single mail participant as reported by the provider.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Display returns the name when present, otherwise the bare address.
func (a Address) Display() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Address
}

// MessageSummary is a single entry of the mailbox list endpoint.
// Ordering is whatever the provider returned and is never re-sorted
// locally.
type MessageSummary struct {
	ID        string    `json:"id"`
	From      Address   `json:"from"`
	Subject   string    `json:"subject"`
	Intro     string    `json:"intro"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageDetail is the full form of a message, fetched lazily per id.
// Exactly one of HTML and Text is expected to be non-empty in practice;
// HTML must pass through the render package before display.
type MessageDetail struct {
	MessageSummary

	To   []Address `json:"to"`
	HTML string    `json:"html"`
	Text string    `json:"text"`
}

// ComposeDraft is the transient state of the compose form. It is never
// persisted and is discarded on send or cancel.
type ComposeDraft struct {
	To      string
	Subject string
	Body    string
}

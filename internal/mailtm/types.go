package mailtm

import "github.com/nhle/tempmail/internal/model"

// domainsResponse is the hydra collection envelope of GET /domains.
type domainsResponse struct {
	Members    []model.Domain `json:"hydra:member"`
	TotalItems int            `json:"hydra:totalItems"`
}

// messagesResponse is the hydra collection envelope of GET /messages.
type messagesResponse struct {
	Members    []model.MessageSummary `json:"hydra:member"`
	TotalItems int                    `json:"hydra:totalItems"`
}

// accountRequest is the body of POST /accounts.
type accountRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// Account is the account record returned by POST /accounts.
type Account struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Quota     int64  `json:"quota"`
	Used      int64  `json:"used"`
	CreatedAt string `json:"createdAt"`
}

// tokenRequest is the body of POST /token.
type tokenRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// tokenResponse is the body returned by POST /token.
type tokenResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// sendRequest is the body of POST /messages.
type sendRequest struct {
	From    model.Address   `json:"from"`
	To      []model.Address `json:"to"`
	Subject string          `json:"subject"`
	Text    string          `json:"text"`
	HTML    string          `json:"html"`
}

// SentMessage is the record returned after a successful send.
type SentMessage struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
}

// errorResponse is the provider's problem-details error body. Depending
// on the endpoint the human-readable part lands in detail or in
// hydra:description.
type errorResponse struct {
	Title       string `json:"title"`
	Detail      string `json:"detail"`
	Description string `json:"hydra:description"`
}

// message returns the most specific human-readable text available.
func (e errorResponse) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Description != "" {
		return e.Description
	}
	return e.Title
}

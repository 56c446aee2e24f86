package mailtm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/tempmail/internal/model"
)

// Client is a thin HTTP client for a mail.tm-style provisioning API.
// It handles Bearer token authentication, JSON marshaling, and
// provider error body decoding. Every operation is a single round
// trip; there is no retry policy.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new provider client. The baseURL should be the
// root URL of the provisioning service (e.g., https://api.mail.tm).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithToken returns a copy of the client that authenticates message
// operations with the given bearer token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Domains lists the mail domains available for new addresses.
func (c *Client) Domains(ctx context.Context) ([]model.Domain, error) {
	var resp domainsResponse
	if err := c.do(ctx, http.MethodGet, "/domains", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing domains: %w", err)
	}
	return resp.Members, nil
}

// CreateAccount registers a new mailbox with the provider. A 422
// response is reported as ErrAccountExists so callers can distinguish
// "already registered" from genuine provider faults.
func (c *Client) CreateAccount(
	ctx context.Context,
	address string,
	password string,
) (*Account, error) {
	var account Account
	err := c.do(
		ctx, http.MethodPost, "/accounts",
		accountRequest{Address: address, Password: password},
		&account,
	)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			return nil, fmt.Errorf("creating account %s: %w", address, ErrAccountExists)
		}
		return nil, fmt.Errorf("creating account %s: %w", address, err)
	}
	return &account, nil
}

// Token authenticates with address/password and returns a bearer token.
func (c *Client) Token(
	ctx context.Context,
	address string,
	password string,
) (string, error) {
	var resp tokenResponse
	err := c.do(
		ctx, http.MethodPost, "/token",
		tokenRequest{Address: address, Password: password},
		&resp,
	)
	if err != nil {
		return "", fmt.Errorf("obtaining token for %s: %w", address, err)
	}
	return resp.Token, nil
}

// Messages lists the mailbox contents in provider order.
func (c *Client) Messages(ctx context.Context) ([]model.MessageSummary, error) {
	var resp messagesResponse
	if err := c.do(ctx, http.MethodGet, "/messages", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return resp.Members, nil
}

// Message fetches the full body of a single message by id.
func (c *Client) Message(ctx context.Context, id string) (*model.MessageDetail, error) {
	var detail model.MessageDetail
	err := c.do(ctx, http.MethodGet, "/messages/"+id, nil, &detail)
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}
	return &detail, nil
}

// DeleteMessage removes a message from the remote mailbox.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/messages/"+id, nil, nil); err != nil {
		return fmt.Errorf("deleting message %s: %w", id, err)
	}
	return nil
}

// SendMessage submits a new outbound message from the given address.
// The body is sent both as text and as html, matching what most
// receiving clients expect.
func (c *Client) SendMessage(
	ctx context.Context,
	from string,
	to string,
	subject string,
	body string,
) (*SentMessage, error) {
	req := sendRequest{
		From:    model.Address{Address: from},
		To:      []model.Address{{Address: to}},
		Subject: subject,
		Text:    body,
		HTML:    body,
	}

	var sent SentMessage
	if err := c.do(ctx, http.MethodPost, "/messages", req, &sent); err != nil {
		return nil, fmt.Errorf("sending message to %s: %w", to, err)
	}
	return &sent, nil
}

// do is the core HTTP method that builds the request, attaches auth,
// and handles JSON (de)serialization and error classification.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		var provErr errorResponse
		msg := "invalid credentials or expired token"
		if json.Unmarshal(respBody, &provErr) == nil && provErr.message() != "" {
			msg = provErr.message()
		}
		return &AuthError{Message: msg}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
		}
		var provErr errorResponse
		if json.Unmarshal(respBody, &provErr) == nil {
			apiErr.Detail = provErr.message()
		}
		return apiErr
	}

	// No content to parse (e.g. 204 on delete).
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf(
			"unmarshaling response from %s %s: %w",
			method, path, err,
		)
	}

	return nil
}

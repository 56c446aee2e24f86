package mailtm

import (
	"errors"
	"fmt"
)

// ErrAccountExists indicates that account creation failed because the
// address is already registered (HTTP 422). The login flow recovers
// from this by attempting authentication with the same credentials.
var ErrAccountExists = errors.New("account address already exists")

// AuthError indicates that the provider rejected the bearer token or
// credentials (HTTP 401). There is no token refresh; the user has to
// log in again.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError is any other non-2xx provider response, carrying the
// provider-supplied detail when the body included one.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf(
			"provider error (%d) on %s %s: %s",
			e.StatusCode, e.Method, e.Path, e.Detail,
		)
	}
	return fmt.Sprintf(
		"unexpected status %d on %s %s",
		e.StatusCode, e.Method, e.Path,
	)
}

// Package auth resolves player tokens into identities, either through an
// external HTTP service or, with auth disabled, by treating the token as a
// guest name.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrInvalidToken means the token was checked and refused.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrUnavailable means the token could not be checked at all.
	ErrUnavailable = errors.New("auth: unavailable")
)

// Identity is an authenticated player
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Validator turns a token into an Identity. Implementations return
// ErrInvalidToken for a refused token and ErrUnavailable when the decision
// could not be made, so callers can tell a bad login from an outage.
type Validator interface {
	Validate(ctx context.Context, token string) (*Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

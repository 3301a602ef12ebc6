package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds one round trip to the token service.
	DefaultTimeout = 500 * time.Millisecond

	maxResponseBytes = 1 << 20
	secretHeader     = "X-Admin-Secret"
)

// HTTPValidator posts tokens to an external service and trusts its verdict.
type HTTPValidator struct {
	url     string
	secret  string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPValidator creates a validator for the service at url. A non-empty
// secret is sent in the X-Admin-Secret header of every call.
func NewHTTPValidator(url, secret string) *HTTPValidator {
	return &HTTPValidator{
		url:     url,
		secret:  secret,
		timeout: DefaultTimeout,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
}

type tokenCheck struct {
	Token string `json:"token"`
}

type tokenVerdict struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (v *HTTPValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	verdict, err := v.check(ctx, token)
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		return nil, ErrInvalidToken
	}
	if verdict.UserID == "" {
		return nil, fmt.Errorf("%w: response carried no user id", ErrUnavailable)
	}

	id := &Identity{UserID: verdict.UserID, Username: verdict.Username}
	if id.Username == "" {
		id.Username = id.UserID
	}
	return id, nil
}

func (v *HTTPValidator) check(ctx context.Context, token string) (*tokenVerdict, error) {
	body, err := json.Marshal(tokenCheck{Token: token})
	if err != nil {
		return nil, fmt.Errorf("marshal token check: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create token check: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.secret != "" {
		req.Header.Set(secretHeader, v.secret)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}

	var verdict tokenVerdict
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("%w: decode verdict: %v", ErrUnavailable, err)
	}
	return &verdict, nil
}

// statusError maps the service's status code onto the package errors. Only
// 401 and 403 are treated as a refusal; anything else but 200 is an outage.
func statusError(code int) error {
	switch code {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrInvalidToken
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	}
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenService stands in for the external validator. It answers with reply
// for every token it receives and records the last request.
type tokenService struct {
	*httptest.Server
	mu         sync.Mutex
	lastToken  string
	lastSecret string
}

func newTokenService(t *testing.T, reply func(w http.ResponseWriter, token string)) *tokenService {
	t.Helper()
	svc := &tokenService{}
	svc.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in tokenCheck
		_ = json.NewDecoder(r.Body).Decode(&in)
		svc.mu.Lock()
		svc.lastToken = in.Token
		svc.lastSecret = r.Header.Get(secretHeader)
		svc.mu.Unlock()
		reply(w, in.Token)
	}))
	t.Cleanup(svc.Close)
	return svc
}

func (s *tokenService) last() (token, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastToken, s.lastSecret
}

func verdictReply(v tokenVerdict) func(http.ResponseWriter, string) {
	return func(w http.ResponseWriter, _ string) {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestHTTPValidatorVerdicts(t *testing.T) {
	tests := []struct {
		name     string
		verdict  tokenVerdict
		wantErr  error
		wantName string
	}{
		{"valid", tokenVerdict{Valid: true, UserID: "user-123", Username: "alice"}, nil, "alice"},
		{"username falls back to id", tokenVerdict{Valid: true, UserID: "user-9"}, nil, "user-9"},
		{"refused", tokenVerdict{Valid: false, Error: "expired"}, ErrInvalidToken, ""},
		{"missing user id", tokenVerdict{Valid: true}, ErrUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTokenService(t, verdictReply(tt.verdict))
			id, err := NewHTTPValidator(svc.URL, "").Validate(context.Background(), "tok")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.verdict.UserID, id.UserID)
			assert.Equal(t, tt.wantName, id.Username)
			token, _ := svc.last()
			assert.Equal(t, "tok", token)
		})
	}
}

func TestHTTPValidatorStatusCodes(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusUnauthorized, ErrInvalidToken},
		{http.StatusForbidden, ErrInvalidToken},
		{http.StatusTooManyRequests, ErrUnavailable},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
		{http.StatusServiceUnavailable, ErrUnavailable},
		{http.StatusTeapot, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			svc := newTokenService(t, func(w http.ResponseWriter, _ string) {
				w.WriteHeader(tt.status)
			})
			_, err := NewHTTPValidator(svc.URL, "").Validate(context.Background(), "tok")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPValidatorSecretHeader(t *testing.T) {
	svc := newTokenService(t, verdictReply(tokenVerdict{Valid: true, UserID: "u"}))

	_, err := NewHTTPValidator(svc.URL, "s3cret").Validate(context.Background(), "tok")
	require.NoError(t, err)
	_, secret := svc.last()
	assert.Equal(t, "s3cret", secret)

	_, err = NewHTTPValidator(svc.URL, "").Validate(context.Background(), "tok")
	require.NoError(t, err)
	_, secret = svc.last()
	assert.Empty(t, secret)
}

func TestHTTPValidatorFailures(t *testing.T) {
	t.Run("empty token skips the service", func(t *testing.T) {
		_, err := NewHTTPValidator("http://127.0.0.1:1", "").Validate(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("network error", func(t *testing.T) {
		_, err := NewHTTPValidator("http://127.0.0.1:1", "").Validate(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := newTokenService(t, func(w http.ResponseWriter, _ string) {
			_, _ = w.Write([]byte("not json"))
		})
		_, err := NewHTTPValidator(svc.URL, "").Validate(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("slow service", func(t *testing.T) {
		svc := newTokenService(t, func(w http.ResponseWriter, _ string) {
			time.Sleep(4 * DefaultTimeout)
			_ = json.NewEncoder(w).Encode(tokenVerdict{Valid: true, UserID: "u"})
		})
		v := NewHTTPValidator(svc.URL, "")
		_, err := v.Validate(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestGuestValidator(t *testing.T) {
	t.Parallel()
	v := NewGuestValidator()
	ctx := context.Background()

	alice, err := v.Validate(ctx, "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Username)
	assert.Equal(t, GuestID("Alice"), alice.UserID)

	lower, err := v.Validate(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, lower.UserID, "guest ids ignore case")

	bob, err := v.Validate(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, alice.UserID, bob.UserID)
}

func TestGuestValidatorRejects(t *testing.T) {
	t.Parallel()
	for _, token := range []string{"", "   ", "bad\x00name", strings.Repeat("x", MaxUsernameLength+1)} {
		_, err := NewGuestValidator().Validate(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
	name, err := NormalizeUsername(strings.Repeat("é", MaxUsernameLength))
	require.NoError(t, err, "length counts runes, not bytes")
	assert.Len(t, []rune(name), MaxUsernameLength)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(r), "header %q", tt.header)
	}
}

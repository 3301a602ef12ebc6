package auth

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxUsernameLength bounds guest names
const MaxUsernameLength = 32

var guestNamespace = uuid.MustParse("6f1c2b7e-41a8-4d5e-9a0c-3b2f8e9d7c11")

// GuestValidator accepts any well-formed name as its own token. The user ID
// is a name-based UUID, so the same guest name always maps to the same
// ledger profile.
type GuestValidator struct{}

// NewGuestValidator creates a validator for servers running without auth.
func NewGuestValidator() *GuestValidator {
	return &GuestValidator{}
}

func (GuestValidator) Validate(_ context.Context, token string) (*Identity, error) {
	name, err := NormalizeUsername(token)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: GuestID(name), Username: name}, nil
}

// GuestID is the stable user ID for a guest name
func GuestID(name string) string {
	return uuid.NewSHA1(guestNamespace, []byte(strings.ToLower(name))).String()
}

// NormalizeUsername trims a guest name and rejects empty, overlong or
// control-character names with ErrInvalidToken.
func NormalizeUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", ErrInvalidToken
	case utf8.RuneCountInString(name) > MaxUsernameLength:
		return "", fmt.Errorf("%w: name longer than %d characters", ErrInvalidToken, MaxUsernameLength)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return "", fmt.Errorf("%w: name contains control characters", ErrInvalidToken)
	}
	return name, nil
}

package protocol

import (
	"errors"
	"fmt"

	"github.com/Grosth/BlackjackCSFinal/internal/auth"
	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/Grosth/BlackjackCSFinal/internal/ledger"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
)

// Error codes carried in ErrorData
const (
	CodeInvalidMessage     = "invalid_message"
	CodeUnknownMessageType = "unknown_message_type"
	CodeNotAuthenticated   = "not_authenticated"
	CodeInvalidToken       = "invalid_token"
	CodeAuthUnavailable    = "auth_unavailable"
	CodeInvalidBet         = "invalid_bet"
	CodeInsufficientChips  = "insufficient_chips"
	CodeRoundInProgress    = "round_in_progress"
	CodeNoActiveRound      = "no_active_round"
	CodeIllegalAction      = "illegal_action"
	CodeProfileNotFound    = "profile_not_found"
	CodeInternal           = "internal_error"
)

var (
	ErrUnexpectedMessage = errors.New("unexpected message type")
	ErrNotAuthenticated  = errors.New("not authenticated")
)

var codeErrors = []struct {
	code string
	err  error
}{
	{CodeInvalidToken, auth.ErrInvalidToken},
	{CodeAuthUnavailable, auth.ErrUnavailable},
	{CodeInvalidBet, game.ErrInvalidBet},
	{CodeInsufficientChips, ledger.ErrInsufficientChips},
	{CodeRoundInProgress, session.ErrRoundInProgress},
	{CodeNoActiveRound, session.ErrNoActiveRound},
	{CodeIllegalAction, game.ErrIllegalAction},
	{CodeProfileNotFound, ledger.ErrProfileNotFound},
	{CodeNotAuthenticated, ErrNotAuthenticated},
}

// ErrorFor classifies err into the payload sent to clients. Unknown errors
// are reported as internal without their details.
func ErrorFor(err error) ErrorData {
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return ErrorData{Code: ce.code, Message: err.Error()}
		}
	}
	return ErrorData{Code: CodeInternal, Message: "internal error"}
}

// Err turns an error payload back into an error that matches the original
// sentinel with errors.Is.
func (e ErrorData) Err() error {
	for _, ce := range codeErrors {
		if ce.code == e.Code {
			return fmt.Errorf("%w (server: %s)", ce.err, e.Message)
		}
	}
	return fmt.Errorf("server error %s: %s", e.Code, e.Message)
}

// Package ledger keeps each player's chip balance, win/loss/tie counters and
// round history. A finished round is settled once: the balance update and the
// history record are written together or not at all.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/game"
)

const (
	// DefaultStartingChips is the balance of a newly created profile
	DefaultStartingChips = 1000

	// DefaultHistoryLimit applies when History is asked for zero or fewer records
	DefaultHistoryLimit = 10

	// MaxHistoryLimit caps a single History call
	MaxHistoryLimit = 100
)

var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrAlreadySettled    = errors.New("round already settled")
)

// Profile is a player's running balance and record
type Profile struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Chips     int       `json:"chips"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Ties      int       `json:"ties"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rounds is the number of settled rounds
func (p Profile) Rounds() int {
	return p.Wins + p.Losses + p.Ties
}

// WinRate is wins as a percentage of all settled rounds, ties included
func (p Profile) WinRate() float64 {
	rounds := p.Rounds()
	if rounds == 0 {
		return 0
	}
	return float64(p.Wins) / float64(rounds) * 100
}

// Record is one settled round in a player's history
type Record struct {
	ID          int64       `json:"id"`
	UserID      string      `json:"userId"`
	RoundID     string      `json:"roundId"`
	Bet         int         `json:"bet"`
	Result      game.Result `json:"result"`
	PlayerScore int         `json:"playerScore"`
	DealerScore int         `json:"dealerScore"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Store is the persistence contract the session layer settles rounds against
type Store interface {
	// EnsureProfile returns the user's profile, creating it with the starting
	// balance on first sight.
	EnsureProfile(ctx context.Context, userID, username string) (Profile, error)
	Profile(ctx context.Context, userID string) (Profile, error)
	// CheckBet reports whether the user can cover bet right now.
	CheckBet(ctx context.Context, userID string, bet int) error
	// Settle applies a finished round's outcome and records it in history.
	// Each round ID settles at most once.
	Settle(ctx context.Context, userID, roundID string, outcome game.Outcome) (Profile, error)
	// History returns the user's most recent records, newest first.
	History(ctx context.Context, userID string, limit int) ([]Record, error)
	Close() error
}

// Apply returns the profile after an outcome: a win adds the bet, a loss
// takes it away with the balance floored at zero, a tie leaves chips alone.
// The matching counter is incremented.
func Apply(p Profile, o game.Outcome) Profile {
	p.Chips = max(0, p.Chips+o.Delta())
	switch o.Result {
	case game.ResultWin:
		p.Wins++
	case game.ResultLoss:
		p.Losses++
	case game.ResultTie:
		p.Ties++
	}
	return p
}

func checkBet(p Profile, bet int) error {
	if bet <= 0 {
		return fmt.Errorf("%w: %d", game.ErrInvalidBet, bet)
	}
	if bet > p.Chips {
		return fmt.Errorf("%w: bet %d, balance %d", ErrInsufficientChips, bet, p.Chips)
	}
	return nil
}

func validateOutcome(o game.Outcome) error {
	if o.Bet <= 0 {
		return fmt.Errorf("%w: %d", game.ErrInvalidBet, o.Bet)
	}
	if _, err := game.ParseResult(string(o.Result)); err != nil {
		return err
	}
	return nil
}

func historyLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

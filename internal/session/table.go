package session

import (
	"context"

	"github.com/Grosth/BlackjackCSFinal/internal/auth"
	"github.com/Grosth/BlackjackCSFinal/internal/ledger"
)

// Seat is what a player gets on joining a table
type Seat struct {
	Profile ledger.Profile
	Rules   Rules
	// Current is a round still in play from an earlier visit, if any.
	Current *State
}

// Table is one player's seat, local or across the network. The terminal UI
// plays against this interface.
type Table interface {
	Join(ctx context.Context) (Seat, error)
	Deal(ctx context.Context, bet int) (State, error)
	Act(ctx context.Context, action Action) (State, error)
	Profile(ctx context.Context) (ledger.Profile, error)
	History(ctx context.Context, limit int) ([]ledger.Record, error)
	Close() error
}

// LocalTable seats a single identity at an in-process Manager
type LocalTable struct {
	manager  *Manager
	identity auth.Identity
}

// NewLocalTable binds identity to manager
func NewLocalTable(manager *Manager, identity auth.Identity) *LocalTable {
	return &LocalTable{manager: manager, identity: identity}
}

func (t *LocalTable) Join(ctx context.Context) (Seat, error) {
	p, err := t.manager.Join(ctx, t.identity)
	if err != nil {
		return Seat{}, err
	}
	seat := Seat{Profile: p, Rules: t.manager.Rules()}
	if st, err := t.manager.Current(ctx, t.identity.UserID); err == nil && st.Outcome == nil {
		seat.Current = &st
	}
	return seat, nil
}

func (t *LocalTable) Deal(ctx context.Context, bet int) (State, error) {
	return t.manager.Deal(ctx, t.identity, bet)
}

func (t *LocalTable) Act(ctx context.Context, action Action) (State, error) {
	return t.manager.Act(ctx, t.identity.UserID, action)
}

func (t *LocalTable) Profile(ctx context.Context) (ledger.Profile, error) {
	return t.manager.Profile(ctx, t.identity.UserID)
}

func (t *LocalTable) History(ctx context.Context, limit int) ([]ledger.Record, error) {
	return t.manager.History(ctx, t.identity.UserID, limit)
}

func (t *LocalTable) Close() error {
	t.manager.Close(t.identity.UserID)
	return nil
}

package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/coder/quartz"
)

// MemoryStore keeps the ledger in process memory
type MemoryStore struct {
	mu            sync.Mutex
	clock         quartz.Clock
	startingChips int
	profiles      map[string]Profile
	records       map[string][]Record
	settled       map[string]bool
	nextID        int64
}

// NewMemoryStore creates an empty in-memory ledger
func NewMemoryStore(startingChips int, clock quartz.Clock) *MemoryStore {
	return &MemoryStore{
		clock:         clock,
		startingChips: startingChips,
		profiles:      make(map[string]Profile),
		records:       make(map[string][]Record),
		settled:       make(map[string]bool),
	}
}

func (m *MemoryStore) EnsureProfile(_ context.Context, userID, username string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	now := m.clock.Now()
	p := Profile{
		UserID:    userID,
		Username:  username,
		Chips:     m.startingChips,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.profiles[userID] = p
	return p, nil
}

func (m *MemoryStore) Profile(_ context.Context, userID string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	return p, nil
}

func (m *MemoryStore) CheckBet(ctx context.Context, userID string, bet int) error {
	p, err := m.Profile(ctx, userID)
	if err != nil {
		return err
	}
	return checkBet(p, bet)
}

func (m *MemoryStore) Settle(_ context.Context, userID, roundID string, outcome game.Outcome) (Profile, error) {
	if err := validateOutcome(outcome); err != nil {
		return Profile{}, fmt.Errorf("settle %s: %w", roundID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, fmt.Errorf("settle %s: %w: %s", roundID, ErrProfileNotFound, userID)
	}
	if m.settled[roundID] {
		return Profile{}, fmt.Errorf("settle %s: %w", roundID, ErrAlreadySettled)
	}

	now := m.clock.Now()
	p = Apply(p, outcome)
	p.UpdatedAt = now

	m.nextID++
	m.records[userID] = append(m.records[userID], Record{
		ID:          m.nextID,
		UserID:      userID,
		RoundID:     roundID,
		Bet:         outcome.Bet,
		Result:      outcome.Result,
		PlayerScore: outcome.PlayerScore,
		DealerScore: outcome.DealerScore,
		CreatedAt:   now,
	})
	m.profiles[userID] = p
	m.settled[roundID] = true
	return p, nil
}

func (m *MemoryStore) History(_ context.Context, userID string, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.records[userID]
	limit = min(historyLimit(limit), len(records))
	out := make([]Record, 0, limit)
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

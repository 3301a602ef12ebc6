// Package session runs blackjack rounds for authenticated players. Each
// player has at most one round in play, actions on it are serialised, and a
// finished round is settled in the ledger exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/auth"
	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/Grosth/BlackjackCSFinal/internal/ledger"
	"github.com/Grosth/BlackjackCSFinal/internal/randutil"
	"github.com/Grosth/BlackjackCSFinal/internal/roundid"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

var (
	ErrNoActiveRound   = errors.New("no active round")
	ErrRoundInProgress = errors.New("round in progress")
)

// Action is a player move on a round in play
type Action string

const (
	ActionHit    Action = "hit"
	ActionStand  Action = "stand"
	ActionDouble Action = "double"
)

// Rules are the table limits applied before a round is dealt
type Rules struct {
	MinBet     int   `json:"minBet"`
	MaxBet     int   `json:"maxBet"`
	BetOptions []int `json:"betOptions"`
}

// CheckBet rejects bets outside the table limits with game.ErrInvalidBet
func (r Rules) CheckBet(bet int) error {
	if bet <= 0 || bet < r.MinBet || (r.MaxBet > 0 && bet > r.MaxBet) {
		return fmt.Errorf("%w: %d outside table limits [%d, %d]", game.ErrInvalidBet, bet, r.MinBet, r.MaxBet)
	}
	return nil
}

// State is what a player sees after each operation
type State struct {
	RoundID string         `json:"roundId"`
	Round   game.View      `json:"round"`
	Outcome *game.Outcome  `json:"outcome,omitempty"`
	Profile ledger.Profile `json:"profile"`
}

// Options configures a Manager
type Options struct {
	Store       ledger.Store
	Rules       Rules
	IdleTimeout time.Duration // zero keeps sessions until Close
	Seed        int64
	Clock       quartz.Clock
	Logger      *log.Logger
	IDs         *roundid.Generator
}

// Manager owns every player's session
type Manager struct {
	store       ledger.Store
	rules       Rules
	idleTimeout time.Duration
	clock       quartz.Clock
	logger      *log.Logger
	ids         *roundid.Generator

	rngMu sync.Mutex
	rng   *rand.Rand

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu         sync.Mutex
	identity   auth.Identity
	roundID    string
	round      game.Round
	settled    bool
	lastActive time.Time
}

// NewManager creates a session manager
func NewManager(opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.IDs == nil {
		opts.IDs = roundid.NewGenerator(nil)
	}
	return &Manager{
		store:       opts.Store,
		rules:       opts.Rules,
		idleTimeout: opts.IdleTimeout,
		clock:       opts.Clock,
		logger:      opts.Logger.WithPrefix("session"),
		ids:         opts.IDs,
		rng:         randutil.New(opts.Seed),
		sessions:    make(map[string]*session),
	}
}

// Rules returns the table limits
func (m *Manager) Rules() Rules {
	return m.rules
}

// Join makes sure the player has a profile and returns it
func (m *Manager) Join(ctx context.Context, id auth.Identity) (ledger.Profile, error) {
	p, err := m.store.EnsureProfile(ctx, id.UserID, id.Username)
	if err != nil {
		return ledger.Profile{}, err
	}
	m.get(id, true)
	return p, nil
}

// Deal starts a new round for the player
func (m *Manager) Deal(ctx context.Context, id auth.Identity, bet int) (State, error) {
	if err := m.rules.CheckBet(bet); err != nil {
		return State{}, err
	}
	if _, err := m.store.EnsureProfile(ctx, id.UserID, id.Username); err != nil {
		return State{}, err
	}

	s := m.get(id, true)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round.Status() == game.Playing {
		return State{}, fmt.Errorf("deal: %w", ErrRoundInProgress)
	}
	// A previous round whose settlement failed gets another try first.
	if _, err := m.settle(ctx, s); err != nil {
		return State{}, err
	}
	if err := m.store.CheckBet(ctx, id.UserID, bet); err != nil {
		return State{}, err
	}

	round, err := game.Deal(bet, m.nextRNG())
	if err != nil {
		return State{}, err
	}

	s.roundID = m.ids.Generate()
	s.round = round
	s.settled = false
	s.lastActive = m.clock.Now()

	m.logger.Debug("Dealt round", "user", id.UserID, "round", s.roundID, "bet", bet,
		"player", round.PlayerHand().String(), "player_score", round.PlayerScore())

	p, err := m.store.Profile(ctx, id.UserID)
	if err != nil {
		return State{}, err
	}
	return State{RoundID: s.roundID, Round: coverable(round.View(), p), Profile: p}, nil
}

// Hit draws a card for the player
func (m *Manager) Hit(ctx context.Context, userID string) (State, error) {
	return m.Act(ctx, userID, ActionHit)
}

// Stand ends the player's turn
func (m *Manager) Stand(ctx context.Context, userID string) (State, error) {
	return m.Act(ctx, userID, ActionStand)
}

// Double doubles the bet, draws one card and stands
func (m *Manager) Double(ctx context.Context, userID string) (State, error) {
	return m.Act(ctx, userID, ActionDouble)
}

// Act applies an action to the player's round in play. An action the round
// does not currently allow is rejected with game.ErrIllegalAction rather
// than silently ignored.
func (m *Manager) Act(ctx context.Context, userID string, action Action) (State, error) {
	s := m.lookup(userID)
	if s == nil {
		return State{}, fmt.Errorf("%s: %w", action, ErrNoActiveRound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round.Status() != game.Playing {
		return State{}, fmt.Errorf("%s: %w", action, ErrNoActiveRound)
	}

	actions := s.round.Actions()
	var (
		allowed bool
		apply   func() (game.Round, error)
	)
	switch action {
	case ActionHit:
		allowed, apply = actions.CanHit, s.round.Hit
	case ActionStand:
		allowed, apply = actions.CanStand, s.round.Stand
	case ActionDouble:
		allowed, apply = actions.CanDouble, s.round.Double
	default:
		return State{}, fmt.Errorf("unknown action %q", action)
	}
	if !allowed {
		return State{}, fmt.Errorf("%w: cannot %s", game.ErrIllegalAction, action)
	}
	if action == ActionDouble {
		// The doubled stake has to be covered by the balance.
		if err := m.store.CheckBet(ctx, userID, 2*s.round.Bet()); err != nil {
			return State{}, fmt.Errorf("double: %w", err)
		}
	}

	next, err := apply()
	if err != nil {
		m.logger.Error("Round aborted", "user", userID, "round", s.roundID, "action", action, "error", err)
		return State{}, err
	}

	s.round = next
	s.lastActive = m.clock.Now()
	return m.state(ctx, s)
}

// Current returns the player's latest round, finished or not
func (m *Manager) Current(ctx context.Context, userID string) (State, error) {
	s := m.lookup(userID)
	if s == nil {
		return State{}, ErrNoActiveRound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round.Status() == game.Waiting {
		return State{}, ErrNoActiveRound
	}
	return m.state(ctx, s)
}

// state settles a finished round if needed and assembles the player's view.
// Callers hold s.mu.
func (m *Manager) state(ctx context.Context, s *session) (State, error) {
	st := State{RoundID: s.roundID, Round: s.round.View()}

	settled, err := m.settle(ctx, s)
	if err != nil {
		return State{}, err
	}
	if settled != nil {
		st.Profile = *settled
	} else if st.Profile, err = m.store.Profile(ctx, s.identity.UserID); err != nil {
		return State{}, err
	}

	if outcome, ok := s.round.Outcome(); ok {
		st.Outcome = &outcome
	}
	st.Round = coverable(st.Round, st.Profile)
	return st, nil
}

// coverable closes Double in the view when the balance cannot cover twice
// the bet.
func coverable(v game.View, p ledger.Profile) game.View {
	if v.Actions.CanDouble && 2*v.Bet > p.Chips {
		v.Actions.CanDouble = false
	}
	return v
}

// settle writes a terminal, unsettled round to the ledger and returns the
// updated profile. It returns nil when there was nothing to settle. Callers
// hold s.mu.
func (m *Manager) settle(ctx context.Context, s *session) (*ledger.Profile, error) {
	if s.settled {
		return nil, nil
	}
	outcome, ok := s.round.Outcome()
	if !ok {
		return nil, nil
	}

	p, err := m.store.Settle(ctx, s.identity.UserID, s.roundID, outcome)
	if errors.Is(err, ledger.ErrAlreadySettled) {
		s.settled = true
		return nil, nil
	}
	if err != nil {
		m.logger.Error("Failed to settle round", "user", s.identity.UserID, "round", s.roundID, "error", err)
		return nil, fmt.Errorf("settle round: %w", err)
	}

	s.settled = true
	m.logger.Info("Round settled",
		"user", s.identity.UserID,
		"round", s.roundID,
		"result", outcome.Result,
		"bet", outcome.Bet,
		"player_score", outcome.PlayerScore,
		"dealer_score", outcome.DealerScore,
		"chips", p.Chips)
	return &p, nil
}

// Profile returns the player's ledger profile
func (m *Manager) Profile(ctx context.Context, userID string) (ledger.Profile, error) {
	return m.store.Profile(ctx, userID)
}

// History returns the player's most recent settled rounds
func (m *Manager) History(ctx context.Context, userID string, limit int) ([]ledger.Record, error) {
	return m.store.History(ctx, userID, limit)
}

// Close drops the player's session. A round still in play is abandoned
// without settlement.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round.Status() == game.Playing {
		m.logger.Warn("Abandoned round", "user", userID, "round", s.roundID, "bet", s.round.Bet())
	}
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the idle timeout and returns how
// many went. A finished round whose settlement failed gets one more try; if
// that fails too the session is kept so a later sweep or deal can retry.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.idleTimeout <= 0 {
		return 0
	}
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for userID, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastActive)
		if idle <= m.idleTimeout {
			s.mu.Unlock()
			continue
		}
		if s.round.Status() == game.Playing {
			m.logger.Warn("Abandoned round", "user", userID, "round", s.roundID, "idle", idle)
		}
		_, err := m.settle(ctx, s)
		s.mu.Unlock()

		if err != nil {
			m.logger.Warn("Keeping idle session with unsettled round", "user", userID, "error", err)
			continue
		}
		delete(m.sessions, userID)
		expired++
	}
	if expired > 0 {
		m.logger.Info("Expired idle sessions", "count", expired, "remaining", len(m.sessions))
	}
	return expired
}

// Run sweeps idle sessions until ctx is cancelled
func (m *Manager) Run(ctx context.Context) {
	if m.idleTimeout <= 0 {
		<-ctx.Done()
		return
	}

	interval := min(max(m.idleTimeout/4, time.Second), time.Minute)
	ticker := m.clock.NewTicker(interval, "session", "sweep")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func (m *Manager) get(id auth.Identity, create bool) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id.UserID]
	if !ok && create {
		s = &session{identity: id, lastActive: m.clock.Now()}
		m.sessions[id.UserID] = s
	}
	return s
}

func (m *Manager) lookup(userID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// nextRNG hands each round its own generator so rounds never share state
func (m *Manager) nextRNG() *rand.Rand {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return randutil.Child(m.rng)
}

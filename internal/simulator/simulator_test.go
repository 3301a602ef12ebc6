package simulator

import (
	"context"
	"io"
	"testing"

	"github.com/Grosth/BlackjackCSFinal/internal/deck"
	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/Grosth/BlackjackCSFinal/internal/randutil"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func TestBasicStrategy(t *testing.T) {
	t.Parallel()
	open := game.Actions{CanHit: true, CanStand: true, CanDouble: true}
	noDouble := game.Actions{CanHit: true, CanStand: true}

	tests := []struct {
		player, up string
		actions    game.Actions
		want       session.Action
	}{
		{"5h 6d", "7c", open, session.ActionDouble},
		{"5h 6d", "Ac", open, session.ActionHit},
		{"5h 6d", "7c", noDouble, session.ActionHit},
		{"4h 6d", "9c", open, session.ActionDouble},
		{"4h 6d", "Tc", open, session.ActionHit},
		{"5h 4d", "6c", open, session.ActionHit},
		{"Th 6d", "7c", open, session.ActionHit},
		{"Th 6d", "5c", open, session.ActionStand},
		{"Th 2d", "4c", open, session.ActionStand},
		{"Th 2d", "2c", open, session.ActionHit},
		{"Th 7d", "Ac", open, session.ActionStand},
		{"Ah 6d", "5c", open, session.ActionHit},
		{"Ah 7d", "9c", open, session.ActionHit},
		{"Ah 7d", "2c", open, session.ActionStand},
		{"Ah 8d", "Tc", open, session.ActionStand},
		{"Ah Kd", "Tc", game.Actions{CanStand: true}, session.ActionStand},
	}
	for _, tt := range tests {
		t.Run(tt.player+" vs "+tt.up, func(t *testing.T) {
			v := game.View{
				Status:     game.Playing,
				PlayerHand: deck.MustParseCards(tt.player),
				DealerHand: deck.MustParseCards(tt.up),
				HoleCard:   true,
				Actions:    tt.actions,
			}
			assert.Equal(t, tt.want, BasicStrategy{}.Decide(v))
		})
	}
}

func TestPolicyByName(t *testing.T) {
	t.Parallel()
	for _, name := range PolicyNames {
		p, ok := PolicyByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, policyName(p))
	}
	_, ok := PolicyByName("martingale")
	assert.False(t, ok)
	assert.Equal(t, "simulator.PolicyFunc", policyName(PolicyFunc(nil)))
}

func TestPlayRoundAlwaysTerminates(t *testing.T) {
	t.Parallel()
	// Hitting on everything, including closed hands, must still finish.
	greedy := PolicyFunc(func(game.View) session.Action { return session.ActionHit })
	rng := randutil.New(5)
	for i := 0; i < 2000; i++ {
		r, err := PlayRound(10, greedy, rng)
		require.NoError(t, err)
		assert.Contains(t, []game.Result{game.ResultWin, game.ResultLoss, game.ResultTie}, r.Result)
		switch {
		case r.Natural:
			assert.NotEqual(t, game.ResultLoss, r.Result, "a natural cannot lose")
		case r.Busted:
			assert.Equal(t, game.ResultLoss, r.Result)
		default:
			assert.Equal(t, game.Blackjack, r.PlayerScore, "hitting only stops at 21 or a bust")
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()
	cfg := Config{Rounds: 5000, Workers: 3, Seed: 42, Logger: testLogger()}

	a, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	b, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Stats.Summary(), b.Stats.Summary())
	assert.Equal(t, a.Stats.Values, b.Stats.Values)

	cfg.Seed = 43
	c, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Stats.Values, c.Stats.Values)
}

func TestRunSplitsRounds(t *testing.T) {
	t.Parallel()
	res, err := Run(context.Background(), Config{Rounds: 1001, Workers: 4, Seed: 1, Logger: testLogger()})
	require.NoError(t, err)
	assert.Equal(t, 1001, res.Stats.Rounds)
	assert.Equal(t, 4, res.Workers)
	require.NoError(t, res.Stats.Validate())

	res, err = Run(context.Background(), Config{Rounds: 2, Workers: 8, Seed: 1, Logger: testLogger()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Workers, "never more workers than rounds")
}

func TestRunPolicies(t *testing.T) {
	t.Parallel()
	run := func(p Policy) *Result {
		res, err := Run(context.Background(), Config{Rounds: 20000, Workers: 4, Seed: 9, Policy: p, Logger: testLogger()})
		require.NoError(t, err)
		return res
	}
	basic := run(BasicStrategy{})
	stand := run(StandAlways{})

	assert.Equal(t, "basic", basic.Policy)
	assert.Positive(t, basic.Stats.Doubles)
	assert.Zero(t, stand.Stats.Doubles)
	assert.Zero(t, stand.Stats.Busts)

	mean := basic.Stats.Mean()
	assert.Greater(t, mean, -0.1)
	assert.Less(t, mean, 0.05)
	assert.Greater(t, mean, stand.Stats.Mean(), "basic strategy beats always standing")

	report := basic.Report()
	assert.Equal(t, int64(9), report.Seed)
	assert.Equal(t, 20000, report.Summary.Rounds)
	assert.Equal(t, basic.Stats.Wins, report.Summary.Wins)
}

func TestRunErrors(t *testing.T) {
	t.Parallel()
	_, err := Run(context.Background(), Config{Rounds: 0})
	assert.ErrorIs(t, err, ErrNoRounds)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, Config{Rounds: 100, Workers: 2, Logger: testLogger()})
	assert.ErrorIs(t, err, context.Canceled)
}

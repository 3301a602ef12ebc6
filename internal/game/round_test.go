package game

import (
	"encoding/json"
	"testing"

	"github.com/Grosth/BlackjackCSFinal/internal/deck"
	"github.com/Grosth/BlackjackCSFinal/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stacked deals a round from cards in draw order: player, player, dealer,
// dealer, then whatever follows.
func stacked(t *testing.T, bet int, cards string) Round {
	t.Helper()
	r, err := DealFrom(bet, deck.FromCards(deck.MustParseCards(cards)...))
	require.NoError(t, err)
	return r
}

func cards(s string) Hand {
	return Hand(deck.MustParseCards(s))
}

func TestDeal(t *testing.T) {
	t.Parallel()

	r, err := DealFrom(10, deck.FromCards(deck.Standard()...))
	require.NoError(t, err)

	assert.Equal(t, Playing, r.Status())
	assert.Equal(t, 10, r.Bet())
	assert.Len(t, r.PlayerHand(), 2)
	assert.Len(t, r.DealerHand(), 2)
	assert.Equal(t, deck.Size-4, r.Deck().Remaining())
	assert.Equal(t, Actions{CanHit: true, CanStand: true, CanDouble: true}, r.Actions())
}

func TestDealShuffled(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 50; seed++ {
		r, err := Deal(10, randutil.New(seed))
		require.NoError(t, err)
		assert.Equal(t, Playing, r.Status())
		assert.Len(t, r.PlayerHand(), 2)
		assert.Len(t, r.DealerHand(), 2)
		assert.Equal(t, 48, r.Deck().Remaining())
		assert.True(t, r.Actions().CanStand)
	}
}

func TestDealOrder(t *testing.T) {
	t.Parallel()
	r := stacked(t, 10, "6h 5d Ks 7c Th")

	assert.Equal(t, cards("6h 5d"), r.PlayerHand())
	assert.Equal(t, cards("Ks 7c"), r.DealerHand())
	assert.Equal(t, 11, r.PlayerScore())
	assert.Equal(t, 10, r.DealerVisibleScore())
	assert.Equal(t, 17, r.DealerScore())
}

func TestDealInvalidBet(t *testing.T) {
	t.Parallel()
	for _, bet := range []int{0, -1, -100} {
		r, err := Deal(bet, randutil.New(1))
		assert.ErrorIs(t, err, ErrInvalidBet)
		assert.Equal(t, Waiting, r.Status())

		_, err = DealFrom(bet, deck.FromCards(deck.Standard()...))
		assert.ErrorIs(t, err, ErrInvalidBet)
	}
}

func TestDealExhausted(t *testing.T) {
	t.Parallel()
	_, err := DealFrom(10, deck.FromCards(deck.MustParseCards("2h 3h 4h")...))
	assert.ErrorIs(t, err, deck.ErrDeckExhausted)
}

func TestDealNaturalForeclosesHit(t *testing.T) {
	t.Parallel()
	r := stacked(t, 10, "Ah Kd 9c 8d 5s")

	assert.Equal(t, Playing, r.Status())
	assert.Equal(t, Actions{CanStand: true}, r.Actions())

	r, err := r.Stand()
	require.NoError(t, err)
	assert.Equal(t, PlayerWon, r.Status())
}

func TestHit(t *testing.T) {
	t.Parallel()

	t.Run("under 21 keeps playing", func(t *testing.T) {
		r := stacked(t, 10, "2h 3d Kc 7d 4c")
		r, err := r.Hit()
		require.NoError(t, err)

		assert.Equal(t, Playing, r.Status())
		assert.Equal(t, 9, r.PlayerScore())
		assert.Equal(t, Actions{CanHit: true, CanStand: true}, r.Actions())
	})

	t.Run("exactly 21 leaves only stand", func(t *testing.T) {
		r := stacked(t, 10, "6h 5d Kc 7d Th")
		r, err := r.Hit()
		require.NoError(t, err)

		assert.Equal(t, Playing, r.Status())
		assert.Equal(t, 21, r.PlayerScore())
		assert.Equal(t, Actions{CanStand: true}, r.Actions())
	})

	t.Run("bust ends the round", func(t *testing.T) {
		r := stacked(t, 10, "Kh Qd 9c 7d 5s")
		r, err := r.Hit()
		require.NoError(t, err)

		assert.Equal(t, DealerWon, r.Status())
		assert.Equal(t, 25, r.PlayerScore())
		assert.Equal(t, Actions{}, r.Actions())
		assert.Equal(t, 10, r.Bet())
		assert.Len(t, r.DealerHand(), 2, "dealer does not draw after a player bust")
	})
}

func TestIllegalActionsAreNoops(t *testing.T) {
	t.Parallel()

	at21 := stacked(t, 10, "6h 5d Kc 7d Th 2c")
	at21, err := at21.Hit()
	require.NoError(t, err)

	again, err := at21.Hit()
	require.NoError(t, err)
	assert.Equal(t, at21, again)

	doubled, err := at21.Double()
	require.NoError(t, err)
	assert.Equal(t, at21, doubled)

	finished, err := at21.Stand()
	require.NoError(t, err)
	require.True(t, finished.Status().IsTerminal())
	for _, action := range []func(Round) (Round, error){Round.Hit, Round.Stand, Round.Double} {
		got, err := action(finished)
		require.NoError(t, err)
		assert.Equal(t, finished, got)
	}

	var waiting Round
	got, err := waiting.Hit()
	require.NoError(t, err)
	assert.Equal(t, waiting, got)
	assert.Equal(t, Actions{}, waiting.Actions())
}

func TestStand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		deck       string
		want       Status
		dealer     int
		dealerSize int
	}{
		{"dealer draws to 20 and wins", "Th 9d 2c 3c 4c 5c 6c", DealerWon, 20, 5},
		{"dealer busts", "Th 2d Tc 6c Kd", PlayerWon, 26, 3},
		{"equal totals tie", "Th 8d Tc 8c", Tie, 18, 2},
		{"player higher wins", "Th 9d Tc 7c", PlayerWon, 17, 2},
		{"soft 17 stands", "Th Qd Ac 6d 5s", PlayerWon, 17, 2},
		{"soft hand hardens and keeps drawing", "Th 9d Ac 5d Kd 4s", DealerWon, 20, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := stacked(t, 10, tt.deck)
			r, err := r.Stand()
			require.NoError(t, err)

			assert.Equal(t, tt.want, r.Status())
			assert.Equal(t, tt.dealer, r.DealerScore())
			assert.Len(t, r.DealerHand(), tt.dealerSize)
			assert.Equal(t, Actions{}, r.Actions())
		})
	}
}

func TestStandExhaustedKeepsLastGoodRound(t *testing.T) {
	t.Parallel()
	r := stacked(t, 10, "Th 9d 2c 3c")

	got, err := r.Stand()
	assert.ErrorIs(t, err, deck.ErrDeckExhausted)
	assert.Equal(t, r, got)
	assert.Equal(t, Playing, got.Status())
}

func TestDouble(t *testing.T) {
	t.Parallel()

	t.Run("21 after double is forced to stand", func(t *testing.T) {
		r := stacked(t, 10, "6h 5d Kc 7d Th")
		r, err := r.Double()
		require.NoError(t, err)

		assert.Equal(t, PlayerWon, r.Status())
		assert.Equal(t, 20, r.Bet())
		assert.True(t, r.Doubled())
		assert.Len(t, r.PlayerHand(), 3)
		assert.Equal(t, 21, r.PlayerScore())
		assert.Equal(t, Actions{}, r.Actions())
	})

	t.Run("low total still resolves", func(t *testing.T) {
		r := stacked(t, 10, "2h 3d Tc 8d 4c")
		r, err := r.Double()
		require.NoError(t, err)

		assert.Equal(t, DealerWon, r.Status())
		assert.Equal(t, 9, r.PlayerScore())
		assert.Len(t, r.PlayerHand(), 3)
	})

	t.Run("dealer plays out after double", func(t *testing.T) {
		r := stacked(t, 25, "5h 5d 6c Td 9s Kc")
		r, err := r.Double()
		require.NoError(t, err)

		assert.Equal(t, PlayerWon, r.Status())
		assert.Equal(t, 50, r.Bet())
		assert.Equal(t, 19, r.PlayerScore())
		assert.Equal(t, 26, r.DealerScore())
	})

	t.Run("bust keeps the doubled bet", func(t *testing.T) {
		r := stacked(t, 10, "Th 2d 9c 7d Kc")
		r, err := r.Double()
		require.NoError(t, err)

		assert.Equal(t, DealerWon, r.Status())
		assert.Equal(t, 20, r.Bet())
		assert.Len(t, r.DealerHand(), 2)

		outcome, ok := r.Outcome()
		require.True(t, ok)
		assert.Equal(t, Outcome{Bet: 20, Result: ResultLoss, PlayerScore: 22, DealerScore: 16}, outcome)
	})

	t.Run("not after a hit", func(t *testing.T) {
		r := stacked(t, 10, "2h 3d Kc 7d 4c 5c")
		r, err := r.Hit()
		require.NoError(t, err)
		require.False(t, r.Actions().CanDouble)

		got, err := r.Double()
		require.NoError(t, err)
		assert.Equal(t, r, got)
		assert.Equal(t, 10, got.Bet())
	})

	t.Run("exhausted deck leaves bet untouched", func(t *testing.T) {
		r := stacked(t, 10, "6h 5d Kc 7d")
		got, err := r.Double()
		assert.ErrorIs(t, err, deck.ErrDeckExhausted)
		assert.Equal(t, r, got)
		assert.Equal(t, 10, got.Bet())
	})
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	t.Parallel()
	r := stacked(t, 10, "2h 3d Kc 7d 4c 5c 6c")
	before := r.View()

	hit, err := r.Hit()
	require.NoError(t, err)
	_, err = hit.Hit()
	require.NoError(t, err)
	_, err = r.Double()
	require.NoError(t, err)
	_, err = r.Stand()
	require.NoError(t, err)

	assert.Equal(t, before, r.View())
	assert.Len(t, r.PlayerHand(), 2)
	assert.Len(t, hit.PlayerHand(), 3)
}

func TestResolve(t *testing.T) {
	t.Parallel()
	for player := 4; player <= Blackjack; player++ {
		for dealer := DealerStandsOn; dealer <= 26; dealer++ {
			got := resolve(player, dealer)
			switch {
			case dealer > Blackjack:
				assert.Equal(t, PlayerWon, got, "dealer bust %d vs %d", dealer, player)
			case dealer == player:
				assert.Equal(t, Tie, got, "equal %d", player)
			case dealer > player:
				assert.Equal(t, DealerWon, got)
			default:
				assert.Equal(t, PlayerWon, got)
			}
		}
	}
}

// Drives rounds with arbitrary legal choices and checks the invariants after
// every step.
func TestRandomRoundsKeepInvariants(t *testing.T) {
	t.Parallel()
	rng := randutil.New(31337)

	for i := 0; i < 1000; i++ {
		r, err := Deal(1+rng.IntN(100), randutil.Child(rng))
		require.NoError(t, err)
		startBet := r.Bet()

		for steps := 0; !r.Status().IsTerminal(); steps++ {
			require.Less(t, steps, 20)
			assertDisjoint(t, r)

			a := r.Actions()
			switch choice := rng.IntN(3); {
			case choice == 0 && a.CanHit:
				r, err = r.Hit()
			case choice == 1 && a.CanDouble:
				r, err = r.Double()
				require.NoError(t, err)
				require.True(t, r.Status().IsTerminal(), "double must always resolve")
				require.Equal(t, 2*startBet, r.Bet())
			default:
				r, err = r.Stand()
			}
			require.NoError(t, err)
		}
		assertDisjoint(t, r)

		if !r.Doubled() {
			assert.Equal(t, startBet, r.Bet())
		}
		if !r.PlayerHand().IsBust() {
			assert.GreaterOrEqual(t, r.DealerScore(), DealerStandsOn, "dealer stopped early")
		}
		if r.DealerScore() > Blackjack && !r.PlayerHand().IsBust() {
			assert.Equal(t, PlayerWon, r.Status())
		}
		if r.DealerScore() == r.PlayerScore() && r.PlayerScore() <= Blackjack {
			assert.Equal(t, Tie, r.Status())
		}
	}
}

func assertDisjoint(t *testing.T, r Round) {
	t.Helper()
	seen := make(map[deck.Card]bool)
	all := append(append(r.PlayerHand(), r.DealerHand()...), r.Deck().Cards()...)
	for _, c := range all {
		require.False(t, seen[c], "card %s appears twice", c)
		seen[c] = true
	}
	require.Len(t, seen, deck.Size)
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	_, ok := stacked(t, 10, "Th 9d Tc 7c").Outcome()
	assert.False(t, ok, "no outcome while playing")

	r, err := stacked(t, 10, "Th 8d Tc 8c").Stand()
	require.NoError(t, err)
	outcome, ok := r.Outcome()
	require.True(t, ok)
	assert.Equal(t, Outcome{Bet: 10, Result: ResultTie, PlayerScore: 18, DealerScore: 18}, outcome)
	assert.Equal(t, 0, outcome.Delta())

	assert.Equal(t, 10, Outcome{Bet: 10, Result: ResultWin}.Delta())
	assert.Equal(t, -10, Outcome{Bet: 10, Result: ResultLoss}.Delta())

	res, err := ParseResult("loss")
	require.NoError(t, err)
	assert.Equal(t, ResultLoss, res)
	_, err = ParseResult("push")
	assert.Error(t, err)
}

func TestViewHidesHoleCard(t *testing.T) {
	t.Parallel()
	r := stacked(t, 10, "Th 9d Kc 7c")

	v := r.View()
	assert.Equal(t, []deck.Card(cards("Kc")), v.DealerHand)
	assert.True(t, v.HoleCard)
	assert.Equal(t, 10, v.DealerScore)
	assert.Equal(t, 19, v.PlayerScore)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"rank":"7"`)
	assert.Contains(t, string(data), `"status":"playing"`)

	r, err = r.Stand()
	require.NoError(t, err)
	v = r.View()
	assert.False(t, v.HoleCard)
	assert.Len(t, v.DealerHand, 2)
	assert.Equal(t, 17, v.DealerScore)
	assert.Equal(t, PlayerWon, v.Status)
}

func TestStatusText(t *testing.T) {
	t.Parallel()
	for _, s := range []Status{Waiting, Dealing, Playing, PlayerWon, DealerWon, Tie} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	assert.Equal(t, "dealerWon", DealerWon.String())
	assert.True(t, Tie.IsTerminal())
	assert.False(t, Playing.IsTerminal())

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("busted")))
}

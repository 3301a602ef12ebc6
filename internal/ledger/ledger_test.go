package ledger

import (
	"testing"

	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		chips   int
		outcome game.Outcome
		want    Profile
	}{
		{"win adds the bet", 100, game.Outcome{Bet: 25, Result: game.ResultWin}, Profile{Chips: 125, Wins: 1}},
		{"loss subtracts the bet", 100, game.Outcome{Bet: 25, Result: game.ResultLoss}, Profile{Chips: 75, Losses: 1}},
		{"tie keeps chips", 100, game.Outcome{Bet: 25, Result: game.ResultTie}, Profile{Chips: 100, Ties: 1}},
		{"doubled loss floors at zero", 30, game.Outcome{Bet: 40, Result: game.ResultLoss}, Profile{Chips: 0, Losses: 1}},
		{"doubled win on a short stack", 30, game.Outcome{Bet: 40, Result: game.ResultWin}, Profile{Chips: 70, Wins: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(Profile{Chips: tt.chips}, tt.outcome)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWinRate(t *testing.T) {
	t.Parallel()
	assert.Zero(t, Profile{}.WinRate())
	assert.InDelta(t, 50.0, Profile{Wins: 2, Losses: 1, Ties: 1}.WinRate(), 1e-9)
	assert.InDelta(t, 100.0, Profile{Wins: 3}.WinRate(), 1e-9)
	assert.Equal(t, 4, Profile{Wins: 2, Losses: 1, Ties: 1}.Rounds())
}

func TestCheckBet(t *testing.T) {
	t.Parallel()
	p := Profile{Chips: 50}
	assert.NoError(t, checkBet(p, 50))
	assert.ErrorIs(t, checkBet(p, 51), ErrInsufficientChips)
	assert.ErrorIs(t, checkBet(p, 0), game.ErrInvalidBet)
	assert.ErrorIs(t, checkBet(p, -5), game.ErrInvalidBet)
}

func TestHistoryLimit(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultHistoryLimit, historyLimit(0))
	assert.Equal(t, DefaultHistoryLimit, historyLimit(-3))
	assert.Equal(t, 5, historyLimit(5))
	assert.Equal(t, MaxHistoryLimit, historyLimit(MaxHistoryLimit+1))
}

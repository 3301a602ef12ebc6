package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Grosth/BlackjackCSFinal/internal/auth"
	"github.com/Grosth/BlackjackCSFinal/internal/deck"
	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/Grosth/BlackjackCSFinal/internal/ledger"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg, err := Reply("req-1", TypeDeal, DealData{Bet: 25})
	require.NoError(t, err)
	assert.Equal(t, TypeDeal, msg.Type)
	assert.Equal(t, "req-1", msg.RequestID)
	assert.JSONEq(t, `{"bet":25}`, string(msg.Data))
	assert.False(t, msg.Timestamp.IsZero())

	var data DealData
	require.NoError(t, msg.Decode(&data))
	assert.Equal(t, 25, data.Bet)
}

func TestMessageWithoutData(t *testing.T) {
	msg, err := NewMessage(TypeHit, nil)
	require.NoError(t, err)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"data"`)

	var data DealData
	assert.NoError(t, msg.Decode(&data))
}

func TestActionFor(t *testing.T) {
	for mt, want := range map[MessageType]session.Action{
		TypeHit:    session.ActionHit,
		TypeStand:  session.ActionStand,
		TypeDouble: session.ActionDouble,
	} {
		got, ok := ActionFor(mt)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := ActionFor(TypeDeal)
	assert.False(t, ok)
}

func TestStateMessage(t *testing.T) {
	view := game.View{
		Status:     game.Playing,
		Bet:        10,
		PlayerHand: deck.MustParseCards("Ah 7d"),
		DealerHand: deck.MustParseCards("9c"),
		HoleCard:   true,
	}
	playing := session.State{RoundID: "r1", Round: view, Profile: ledger.Profile{UserID: "u1", Chips: 990}}

	msg, err := StateMessage("q", playing, []int{10, 25})
	require.NoError(t, err)
	assert.Equal(t, TypeRoundState, msg.Type)

	var data RoundStateData
	require.NoError(t, msg.Decode(&data))
	assert.Equal(t, []int{10, 25}, data.BetOptions)

	got, err := msg.State()
	require.NoError(t, err)
	assert.Equal(t, playing.RoundID, got.RoundID)
	assert.Equal(t, playing.Round.PlayerHand, got.Round.PlayerHand)
	assert.Equal(t, game.Playing, got.Round.Status)
	assert.Nil(t, got.Outcome)

	outcome := game.Outcome{Bet: 10, Result: game.ResultWin, PlayerScore: 18, DealerScore: 17}
	finished := playing
	finished.Outcome = &outcome
	msg, err = StateMessage("q", finished, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeRoundResult, msg.Type)

	got, err = msg.State()
	require.NoError(t, err)
	require.NotNil(t, got.Outcome)
	assert.Equal(t, outcome, *got.Outcome)

	msg, _ = NewMessage(TypeProfile, nil)
	_, err = msg.State()
	assert.ErrorIs(t, err, ErrUnexpectedMessage)
}

func TestErrorRoundTrip(t *testing.T) {
	sentinels := []error{
		auth.ErrInvalidToken,
		auth.ErrUnavailable,
		game.ErrInvalidBet,
		game.ErrIllegalAction,
		ledger.ErrInsufficientChips,
		ledger.ErrProfileNotFound,
		session.ErrRoundInProgress,
		session.ErrNoActiveRound,
		ErrNotAuthenticated,
	}
	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("deal: %w", sentinel)
		data := ErrorFor(wrapped)
		assert.NotEqual(t, CodeInternal, data.Code, sentinel.Error())
		assert.ErrorIs(t, data.Err(), sentinel)
	}
}

func TestErrorForHidesInternalDetails(t *testing.T) {
	data := ErrorFor(errors.New("database is locked at /var/lib/secret.db"))
	assert.Equal(t, CodeInternal, data.Code)
	assert.NotContains(t, data.Message, "secret")

	err := ErrorData{Code: "weird", Message: "boom"}.Err()
	assert.EqualError(t, err, "server error weird: boom")
}

package game

import "github.com/Grosth/BlackjackCSFinal/internal/deck"

// View is the presentation snapshot of a round. While the round is in play
// the dealer's hole card is left out of DealerHand and flagged by HoleCard.
type View struct {
	Status        Status      `json:"status"`
	Bet           int         `json:"bet"`
	Doubled       bool        `json:"doubled"`
	PlayerHand    []deck.Card `json:"playerHand"`
	DealerHand    []deck.Card `json:"dealerHand"`
	HoleCard      bool        `json:"holeCard"`
	PlayerScore   int         `json:"playerScore"`
	DealerScore   int         `json:"dealerScore"`
	Actions       Actions     `json:"actions"`
	DeckRemaining int         `json:"deckRemaining"`
}

// View builds the snapshot a player is allowed to see
func (r Round) View() View {
	dealer := []deck.Card(r.dealer.clone())
	hole := false
	if r.status == Playing && len(dealer) > 1 {
		dealer = dealer[:1]
		hole = true
	}
	player := []deck.Card(r.player.clone())
	if player == nil {
		player = []deck.Card{}
	}
	if dealer == nil {
		dealer = []deck.Card{}
	}
	return View{
		Status:        r.status,
		Bet:           r.bet,
		Doubled:       r.doubled,
		PlayerHand:    player,
		DealerHand:    dealer,
		HoleCard:      hole,
		PlayerScore:   r.PlayerScore(),
		DealerScore:   r.DealerVisibleScore(),
		Actions:       r.Actions(),
		DeckRemaining: r.deck.Remaining(),
	}
}

package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/Grosth/BlackjackCSFinal/internal/deck"
)

// DealerStandsOn is the total at which the dealer stops drawing. There is no
// separate soft-17 rule.
const DealerStandsOn = 17

var (
	// ErrInvalidBet is returned when a bet is not a positive amount
	ErrInvalidBet = errors.New("invalid bet")

	// ErrIllegalAction is not returned by Round itself, whose illegal actions
	// are no-ops, but by callers that choose to reject them.
	ErrIllegalAction = errors.New("illegal action")
)

// Round is one hand of blackjack from deal to resolution
type Round struct {
	bet     int
	doubled bool
	player  Hand
	dealer  Hand
	deck    deck.Deck
	status  Status
}

// Deal starts a round with a freshly shuffled deck drawn from rng
func Deal(bet int, rng *rand.Rand) (Round, error) {
	if bet <= 0 {
		return Round{}, fmt.Errorf("%w: %d", ErrInvalidBet, bet)
	}
	return DealFrom(bet, deck.New(rng))
}

// DealFrom starts a round with the given deck. Cards go player, player,
// dealer, dealer.
func DealFrom(bet int, d deck.Deck) (Round, error) {
	if bet <= 0 {
		return Round{}, fmt.Errorf("%w: %d", ErrInvalidBet, bet)
	}

	r := Round{bet: bet, deck: d, status: Dealing}
	for _, toPlayer := range []bool{true, true, false, false} {
		if err := r.draw(toPlayer); err != nil {
			return Round{}, fmt.Errorf("deal: %w", err)
		}
	}
	r.status = Playing
	return r, nil
}

// Actions derives the open moves from the status and the player's hand. A
// hand at 21, a two-card natural included, closes Hit and Double and leaves
// only Stand.
func (r Round) Actions() Actions {
	if r.status != Playing {
		return Actions{}
	}
	canHit := r.player.Score() < Blackjack
	return Actions{
		CanHit:    canHit,
		CanStand:  true,
		CanDouble: canHit && len(r.player) == 2 && !r.doubled,
	}
}

// Hit draws one card for the player. A bust ends the round for the dealer.
func (r Round) Hit() (Round, error) {
	if !r.Actions().CanHit {
		return r, nil
	}

	next := r.clone()
	if err := next.draw(true); err != nil {
		return r, fmt.Errorf("hit: %w", err)
	}
	if next.player.IsBust() {
		next.status = DealerWon
	}
	return next, nil
}

// Stand ends the player's turn; the dealer draws to 17 and the round resolves
func (r Round) Stand() (Round, error) {
	if !r.Actions().CanStand {
		return r, nil
	}

	next := r.clone()
	if err := next.playDealer(); err != nil {
		return r, fmt.Errorf("stand: %w", err)
	}
	return next, nil
}

// Double doubles the bet, draws exactly one card and, unless that card busts
// the player, plays the dealer out. The round is always terminal afterwards.
func (r Round) Double() (Round, error) {
	if !r.Actions().CanDouble {
		return r, nil
	}

	next := r.clone()
	next.bet *= 2
	next.doubled = true
	if err := next.draw(true); err != nil {
		return r, fmt.Errorf("double: %w", err)
	}
	if next.player.IsBust() {
		next.status = DealerWon
		return next, nil
	}

	// The forced stand happens even on 21, so it bypasses the CanStand guard.
	if err := next.playDealer(); err != nil {
		return r, fmt.Errorf("double: %w", err)
	}
	return next, nil
}

func (r *Round) playDealer() error {
	for r.dealer.Score() < DealerStandsOn {
		if err := r.draw(false); err != nil {
			return err
		}
	}
	r.status = resolve(r.player.Score(), r.dealer.Score())
	return nil
}

func resolve(player, dealer int) Status {
	switch {
	case dealer > Blackjack:
		return PlayerWon
	case dealer > player:
		return DealerWon
	case dealer < player:
		return PlayerWon
	default:
		return Tie
	}
}

func (r *Round) draw(toPlayer bool) error {
	c, rest, err := r.deck.Draw()
	if err != nil {
		return err
	}
	r.deck = rest
	if toPlayer {
		r.player = append(r.player, c)
	} else {
		r.dealer = append(r.dealer, c)
	}
	return nil
}

// clone copies the hands so appends on the copy never reach the original's
// backing arrays. The deck is immutable and can be shared.
func (r Round) clone() Round {
	r.player = r.player.clone()
	r.dealer = r.dealer.clone()
	return r
}

// Bet returns the current wager, doubled if the player doubled
func (r Round) Bet() int { return r.bet }

// Doubled reports whether the player doubled down
func (r Round) Doubled() bool { return r.doubled }

// Status returns the round status
func (r Round) Status() Status { return r.status }

// PlayerHand returns a copy of the player's cards
func (r Round) PlayerHand() Hand { return r.player.clone() }

// DealerHand returns a copy of all the dealer's cards, hole card included
func (r Round) DealerHand() Hand { return r.dealer.clone() }

// Deck returns the undealt cards
func (r Round) Deck() deck.Deck { return r.deck }

// PlayerScore returns the player's best total
func (r Round) PlayerScore() int { return r.player.Score() }

// DealerScore returns the dealer's total over every card, hole card included
func (r Round) DealerScore() int { return r.dealer.Score() }

// DealerVisibleScore is the dealer total a player may see: only the up card
// while the round is in play, the whole hand afterwards.
func (r Round) DealerVisibleScore() int {
	if r.status == Playing && len(r.dealer) > 0 {
		return Score(r.dealer[:1])
	}
	return r.dealer.Score()
}

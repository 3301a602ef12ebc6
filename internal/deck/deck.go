package deck

import (
	"errors"
	rand "math/rand/v2"
)

// Size is the number of cards in a full deck
const Size = 52

// ErrDeckExhausted is returned when drawing from an empty deck
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is an ordered sequence of cards, top card first. A Deck is a value:
// Draw returns the remaining deck and never modifies the receiver, so copies
// of a Deck are independent.
type Deck struct {
	cards []Card
}

// Standard returns the 52 cards in construction order (suits by rank, unshuffled)
func Standard() []Card {
	cards := make([]Card, 0, Size)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// New creates a full deck shuffled with the given random source. The source
// must not be nil; pass a seeded generator to get a reproducible order.
func New(rng *rand.Rand) Deck {
	cards := Standard()
	Shuffle(cards, rng)
	return Deck{cards: cards}
}

// FromCards creates a stacked deck; cards[0] is drawn first
func FromCards(cards ...Card) Deck {
	return Deck{cards: append([]Card(nil), cards...)}
}

// Shuffle permutes cards in place using Fisher-Yates
func Shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Draw removes the top card and returns it with the remaining deck
func (d Deck) Draw() (Card, Deck, error) {
	if len(d.cards) == 0 {
		return Card{}, d, ErrDeckExhausted
	}
	return d.cards[0], Deck{cards: d.cards[1:]}, nil
}

// Remaining returns the number of undealt cards
func (d Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the undealt cards, top first
func (d Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// Contains reports whether c is still in the deck
func (d Deck) Contains(c Card) bool {
	for _, x := range d.cards {
		if x == c {
			return true
		}
	}
	return false
}

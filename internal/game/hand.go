package game

import (
	"strings"

	"github.com/Grosth/BlackjackCSFinal/internal/deck"
)

// Blackjack is the best possible hand total
const Blackjack = 21

// Hand is an ordered sequence of cards belonging to the player or the dealer
type Hand []deck.Card

// Score returns the best total for cards: aces count 11 and are hardened to 1
// one at a time while the total is over 21. The result is the highest total
// not above 21 when one exists, otherwise the lowest possible total.
func Score(cards []deck.Card) int {
	total, _ := score(cards)
	return total
}

func score(cards []deck.Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		total += c.BaseValue()
		if c.IsAce() {
			aces++
		}
	}
	for total > Blackjack && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

// Score returns the hand's best total
func (h Hand) Score() int {
	return Score(h)
}

// IsSoft reports whether an ace is still counted as 11 in the best total
func (h Hand) IsSoft() bool {
	_, soft := score(h)
	return soft
}

// IsBust reports whether the hand is over 21
func (h Hand) IsBust() bool {
	return h.Score() > Blackjack
}

// IsNatural reports a two-card 21
func (h Hand) IsNatural() bool {
	return len(h) == 2 && h.Score() == Blackjack
}

// Contains reports whether c is in the hand
func (h Hand) Contains(c deck.Card) bool {
	for _, x := range h {
		if x == c {
			return true
		}
	}
	return false
}

func (h Hand) clone() Hand {
	return append(Hand(nil), h...)
}

// String returns the cards separated by spaces (e.g. "A♠ 10♥")
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Package game implements the single-player blackjack round engine.
//
// The main type is Round, which owns a deck and the player and dealer hands
// and moves through deal, hit, stand and double to a terminal status.
//
// # Basic Usage
//
// Deal a round and play it out:
//
//	r, err := game.Deal(10, randutil.New(42))
//	if err != nil {
//	    return err // game.ErrInvalidBet
//	}
//	if r.Actions().CanHit {
//	    r, err = r.Hit()
//	}
//	if r.Actions().CanStand {
//	    r, err = r.Stand()
//	}
//	if outcome, ok := r.Outcome(); ok {
//	    // hand outcome to the ledger
//	}
//
// # Value Semantics
//
// Round is a value. Every transition takes the round by value and returns a
// new one; the input is never modified. Calling an action whose flag in
// Actions() is false returns the round unchanged with a nil error.
//
// # Deterministic Testing
//
// Deal takes the random source explicitly. For complete control, stack the
// deck with DealFrom:
//
//	d := deck.FromCards(deck.MustParseCards("6h 5d Ks 7c Th")...)
//	r, _ := game.DealFrom(10, d) // player 6h 5d, dealer Ks 7c, next card Th
//
// The engine performs no I/O and does not log; recording outcomes is the
// caller's job.
package game

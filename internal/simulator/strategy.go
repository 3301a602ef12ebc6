package simulator

import (
	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
)

// Policy picks the player's next move for a round in play. It is only asked
// when at least one action is open.
type Policy interface {
	Decide(v game.View) session.Action
}

// PolicyFunc adapts a function to Policy
type PolicyFunc func(v game.View) session.Action

func (f PolicyFunc) Decide(v game.View) session.Action { return f(v) }

// BasicStrategy is a simplified basic strategy for a single deck with no
// splits or surrender: double on 10 and 11 against weaker upcards, stand on
// stiff totals against a dealer 2 through 6, hit soft 17 and below.
type BasicStrategy struct{}

func (BasicStrategy) Decide(v game.View) session.Action {
	hand := game.Hand(v.PlayerHand)
	total := hand.Score()
	up := 10
	if len(v.DealerHand) > 0 {
		up = v.DealerHand[0].BaseValue()
	}

	if v.Actions.CanDouble {
		switch {
		case total == 11 && up != 11:
			return session.ActionDouble
		case total == 10 && up < 10:
			return session.ActionDouble
		}
	}
	if !v.Actions.CanHit {
		return session.ActionStand
	}

	if hand.IsSoft() {
		if total <= 17 {
			return session.ActionHit
		}
		if total == 18 && up >= 9 {
			return session.ActionHit
		}
		return session.ActionStand
	}

	switch {
	case total < 12:
		return session.ActionHit
	case total >= 17:
		return session.ActionStand
	case total == 12:
		if up >= 4 && up <= 6 {
			return session.ActionStand
		}
		return session.ActionHit
	default:
		if up <= 6 {
			return session.ActionStand
		}
		return session.ActionHit
	}
}

func (BasicStrategy) Name() string { return "basic" }

// StandAlways stands on every hand
type StandAlways struct{}

func (StandAlways) Decide(game.View) session.Action { return session.ActionStand }

func (StandAlways) Name() string { return "stand" }

// MimicDealer hits below 17 like the dealer and never doubles
type MimicDealer struct{}

func (MimicDealer) Decide(v game.View) session.Action {
	if v.Actions.CanHit && v.PlayerScore < game.DealerStandsOn {
		return session.ActionHit
	}
	return session.ActionStand
}

func (MimicDealer) Name() string { return "dealer" }

// PolicyNames lists the policies PolicyByName knows
var PolicyNames = []string{"basic", "stand", "dealer"}

// PolicyByName looks up a policy for the command line
func PolicyByName(name string) (Policy, bool) {
	switch name {
	case "basic", "":
		return BasicStrategy{}, true
	case "stand":
		return StandAlways{}, true
	case "dealer":
		return MimicDealer{}, true
	}
	return nil, false
}

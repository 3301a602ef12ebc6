package game

import "fmt"

// Result is a round's result from the player's side
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultTie  Result = "tie"
)

// ParseResult validates a result string read back from storage or the wire
func ParseResult(s string) (Result, error) {
	switch r := Result(s); r {
	case ResultWin, ResultLoss, ResultTie:
		return r, nil
	}
	return "", fmt.Errorf("unknown result %q", s)
}

// Outcome is what a finished round reports to the ledger
type Outcome struct {
	Bet         int    `json:"bet"`
	Result      Result `json:"result"`
	PlayerScore int    `json:"playerScore"`
	DealerScore int    `json:"dealerScore"`
}

// Delta is the chip change the outcome asks for before any floor is applied
func (o Outcome) Delta() int {
	switch o.Result {
	case ResultWin:
		return o.Bet
	case ResultLoss:
		return -o.Bet
	default:
		return 0
	}
}

// Outcome returns the round's outcome once it is terminal. The dealer score
// covers the dealer's whole hand, hole card included.
func (r Round) Outcome() (Outcome, bool) {
	var result Result
	switch r.status {
	case PlayerWon:
		result = ResultWin
	case DealerWon:
		result = ResultLoss
	case Tie:
		result = ResultTie
	default:
		return Outcome{}, false
	}
	return Outcome{
		Bet:         r.bet,
		Result:      result,
		PlayerScore: r.PlayerScore(),
		DealerScore: r.DealerScore(),
	}, true
}

package game

import "fmt"

// Status is the position of a round in its lifecycle
type Status uint8

const (
	Waiting Status = iota // no active round
	Dealing               // transient, only observed inside Deal
	Playing
	PlayerWon
	DealerWon
	Tie
)

var statusNames = map[Status]string{
	Waiting:   "waiting",
	Dealing:   "dealing",
	Playing:   "playing",
	PlayerWon: "playerWon",
	DealerWon: "dealerWon",
	Tie:       "tie",
}

// String returns the wire name of the status
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// IsTerminal reports whether the round has been resolved
func (s Status) IsTerminal() bool {
	return s == PlayerWon || s == DealerWon || s == Tie
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown status %d", uint8(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Actions are the moves currently open to the player
type Actions struct {
	CanHit    bool `json:"canHit"`
	CanStand  bool `json:"canStand"`
	CanDouble bool `json:"canDouble"`
}


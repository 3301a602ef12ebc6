// Package statistics aggregates simulated blackjack rounds.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/Grosth/BlackjackCSFinal/internal/game"
)

// RoundResult is the outcome of a single simulated round
type RoundResult struct {
	Net         float64 // units won or lost; a doubled win is +2
	Result      game.Result
	Natural     bool // player was dealt 21
	Busted      bool // player went over 21
	DealerBust  bool
	Doubled     bool
	PlayerScore int
	DealerScore int
}

// Statistics tracks the results of a simulation run
type Statistics struct {
	Rounds int
	Sum    float64
	SumSq  float64   // sum of squares for the variance
	Values []float64 // every net result, for median and percentiles

	Wins        int
	Losses      int
	Ties        int
	Naturals    int
	Busts       int
	DealerBusts int
	Doubles     int
	DoubledNet  float64 // net units from doubled rounds
}

// Add incorporates one round into the statistics
func (s *Statistics) Add(r RoundResult) {
	s.Rounds++
	s.Sum += r.Net
	s.SumSq += r.Net * r.Net
	s.Values = append(s.Values, r.Net)

	switch r.Result {
	case game.ResultWin:
		s.Wins++
	case game.ResultLoss:
		s.Losses++
	default:
		s.Ties++
	}
	if r.Natural {
		s.Naturals++
	}
	if r.Busted {
		s.Busts++
	}
	if r.DealerBust {
		s.DealerBusts++
	}
	if r.Doubled {
		s.Doubles++
		s.DoubledNet += r.Net
	}
}

// Merge folds other into s. Merging worker results in worker order keeps a
// run reproducible.
func (s *Statistics) Merge(other *Statistics) {
	s.Rounds += other.Rounds
	s.Sum += other.Sum
	s.SumSq += other.SumSq
	s.Values = append(s.Values, other.Values...)
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Ties += other.Ties
	s.Naturals += other.Naturals
	s.Busts += other.Busts
	s.DealerBusts += other.DealerBusts
	s.Doubles += other.Doubles
	s.DoubledNet += other.DoubledNet
}

// Mean returns the average net units per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.Sum / float64(s.Rounds)
}

// Variance returns the sample variance of the net results
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	v := (s.SumSq - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
	if v < 0 {
		// rounding on near-constant samples
		return 0
	}
	return v
}

// StdDev returns the sample standard deviation
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// WinRate is wins over all rounds as a percentage, matching the ledger's
// profile win rate
func (s *Statistics) WinRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Rounds) * 100
}

// Median returns the median net result
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the interpolated value at p, from 0.0 to 1.0
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks that the counters agree with each other
func (s *Statistics) Validate() error {
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)", len(s.Values), s.Rounds)
	}
	if total := s.Wins + s.Losses + s.Ties; total != s.Rounds {
		return fmt.Errorf("results total (%d) does not match rounds count (%d)", total, s.Rounds)
	}
	if s.Naturals > s.Wins+s.Ties {
		return fmt.Errorf("naturals (%d) exceed wins and ties (%d)", s.Naturals, s.Wins+s.Ties)
	}
	if s.Busts > s.Losses {
		return fmt.Errorf("busts (%d) exceed losses (%d)", s.Busts, s.Losses)
	}
	if s.Doubles > s.Rounds {
		return fmt.Errorf("doubles (%d) exceed rounds (%d)", s.Doubles, s.Rounds)
	}
	return nil
}

// Summary is the report form of the statistics
type Summary struct {
	Rounds      int     `json:"rounds"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Ties        int     `json:"ties"`
	Naturals    int     `json:"naturals"`
	Busts       int     `json:"busts"`
	DealerBusts int     `json:"dealerBusts"`
	Doubles     int     `json:"doubles"`
	WinRate     float64 `json:"winRate"`
	Net         float64 `json:"net"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"stdDev"`
	CILow       float64 `json:"ci95Low"`
	CIHigh      float64 `json:"ci95High"`
}

// Summary condenses the statistics for reporting
func (s *Statistics) Summary() Summary {
	lo, hi := s.ConfidenceInterval95()
	return Summary{
		Rounds:      s.Rounds,
		Wins:        s.Wins,
		Losses:      s.Losses,
		Ties:        s.Ties,
		Naturals:    s.Naturals,
		Busts:       s.Busts,
		DealerBusts: s.DealerBusts,
		Doubles:     s.Doubles,
		WinRate:     s.WinRate(),
		Net:         s.Sum,
		Mean:        s.Mean(),
		StdDev:      s.StdDev(),
		CILow:       lo,
		CIHigh:      hi,
	}
}

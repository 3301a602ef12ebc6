// Package simulator plays large numbers of rounds with a fixed policy to
// measure the game's edge.
package simulator

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"runtime"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/Grosth/BlackjackCSFinal/internal/randutil"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
	"github.com/Grosth/BlackjackCSFinal/internal/statistics"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// DefaultBet is the stake per round when Config leaves it unset. Results
// are reported in units of the stake either way.
const DefaultBet = 10

// maxWorkers caps the worker count, following diminishing returns.
const maxWorkers = 8

var ErrNoRounds = errors.New("rounds must be positive")

// Config configures a simulation run
type Config struct {
	Rounds  int
	Workers int // 0 picks runtime.NumCPU, capped at 8
	Seed    int64
	Bet     int
	Policy  Policy
	Logger  *log.Logger
}

// Result is a finished run
type Result struct {
	Seed     int64
	Workers  int
	Policy   string
	Stats    *statistics.Statistics
	Duration time.Duration
}

// Report is the JSON form of a Result
type Report struct {
	Seed     int64              `json:"seed"`
	Workers  int                `json:"workers"`
	Policy   string             `json:"policy"`
	Duration string             `json:"duration"`
	Summary  statistics.Summary `json:"summary"`
}

// Report condenses the result for writing out
func (r *Result) Report() Report {
	return Report{
		Seed:     r.Seed,
		Workers:  r.Workers,
		Policy:   r.Policy,
		Duration: r.Duration.Round(time.Millisecond).String(),
		Summary:  r.Stats.Summary(),
	}
}

// Run plays cfg.Rounds rounds across worker goroutines. The same seed and
// worker count always produce the same statistics.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Rounds <= 0 {
		return nil, ErrNoRounds
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = min(runtime.NumCPU(), maxWorkers)
	}
	workers = min(workers, cfg.Rounds)
	bet := cfg.Bet
	if bet <= 0 {
		bet = DefaultBet
	}
	policy := cfg.Policy
	if policy == nil {
		policy = BasicStrategy{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("simulator")

	logger.Info("Starting simulation", "rounds", cfg.Rounds, "workers", workers, "seed", cfg.Seed, "policy", policyName(policy))
	start := time.Now()

	perWorker := cfg.Rounds / workers
	remainder := cfg.Rounds % workers

	// Each worker gets its own generator, derived up front so the split
	// does not depend on scheduling.
	root := randutil.New(cfg.Seed)
	results := make([]*statistics.Statistics, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		n := perWorker
		if w < remainder {
			n++
		}
		rng := randutil.Child(root)
		g.Go(func() error {
			stats, err := runWorker(ctx, n, bet, policy, rng)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			results[w] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := &statistics.Statistics{}
	for _, s := range results {
		total.Merge(s)
	}
	if err := total.Validate(); err != nil {
		return nil, fmt.Errorf("inconsistent statistics: %w", err)
	}

	res := &Result{
		Seed:     cfg.Seed,
		Workers:  workers,
		Policy:   policyName(policy),
		Stats:    total,
		Duration: time.Since(start),
	}
	logger.Info("Simulation complete", "rounds", total.Rounds, "mean", fmt.Sprintf("%.4f", total.Mean()), "duration", res.Duration)
	return res, nil
}

func runWorker(ctx context.Context, rounds, bet int, policy Policy, rng *rand.Rand) (*statistics.Statistics, error) {
	stats := &statistics.Statistics{}
	for i := 0; i < rounds; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		r, err := PlayRound(bet, policy, rng)
		if err != nil {
			return nil, err
		}
		stats.Add(r)
	}
	return stats, nil
}

// PlayRound deals one round and plays it out with policy
func PlayRound(bet int, policy Policy, rng *rand.Rand) (statistics.RoundResult, error) {
	round, err := game.Deal(bet, rng)
	if err != nil {
		return statistics.RoundResult{}, err
	}
	natural := round.PlayerHand().IsNatural()

	for round.Status() == game.Playing {
		next, err := apply(round, policy.Decide(round.View()))
		if err != nil {
			return statistics.RoundResult{}, err
		}
		if next.Status() == game.Playing && len(next.PlayerHand()) == len(round.PlayerHand()) {
			// The policy chose a closed action; standing ends the round.
			if next, err = round.Stand(); err != nil {
				return statistics.RoundResult{}, err
			}
		}
		round = next
	}

	o, ok := round.Outcome()
	if !ok {
		return statistics.RoundResult{}, fmt.Errorf("round ended in status %s", round.Status())
	}
	return statistics.RoundResult{
		Net:         float64(o.Delta()) / float64(bet),
		Result:      o.Result,
		Natural:     natural,
		Busted:      round.PlayerHand().IsBust(),
		DealerBust:  round.DealerHand().IsBust(),
		Doubled:     round.Doubled(),
		PlayerScore: o.PlayerScore,
		DealerScore: o.DealerScore,
	}, nil
}

func apply(r game.Round, action session.Action) (game.Round, error) {
	switch action {
	case session.ActionHit:
		return r.Hit()
	case session.ActionDouble:
		return r.Double()
	default:
		return r.Stand()
	}
}

func policyName(p Policy) string {
	if n, ok := p.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}

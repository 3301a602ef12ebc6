package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/fileutil"
	"github.com/Grosth/BlackjackCSFinal/internal/simulator"
)

// SimulateCmd plays rounds offline with a fixed strategy
type SimulateCmd struct {
	Rounds  int    `default:"100000" help:"Number of rounds to simulate"`
	Workers int    `default:"0" help:"Worker goroutines (0 for one per CPU, up to 8)"`
	Policy  string `default:"basic" enum:"basic,stand,dealer" help:"Player strategy: basic, stand or dealer"`
	Bet     int    `default:"10" help:"Stake per round"`
	Seed    *int64 `help:"RNG seed (optional)"`
	Output  string `short:"o" help:"Write a JSON report to this file"`

	out io.Writer `kong:"-"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	level := g.LogLevel
	if level == "" {
		level = "warn"
	}
	logger := newLogger(os.Stderr, level)

	policy, ok := simulator.PolicyByName(c.Policy)
	if !ok {
		return fmt.Errorf("unknown policy %q (want %s)", c.Policy, strings.Join(simulator.PolicyNames, ", "))
	}

	ctx, stop := signalContext(logger)
	defer stop()

	res, err := simulator.Run(ctx, simulator.Config{
		Rounds:  c.Rounds,
		Workers: c.Workers,
		Seed:    resolveSeed(c.Seed, logger),
		Bet:     c.Bet,
		Policy:  policy,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}
	printSimulation(out, res)

	if c.Output != "" {
		if err := fileutil.WriteJSONAtomic(c.Output, res.Report(), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(out, "\nReport written to %s\n", c.Output)
	}
	return nil
}

func printSimulation(w io.Writer, res *simulator.Result) {
	s := res.Stats
	lo, hi := s.ConfidenceInterval95()
	pct := func(n int) float64 { return float64(n) / float64(s.Rounds) * 100 }

	fmt.Fprintf(w, "Simulated %d rounds (%s strategy, %d workers, seed %d) in %s\n\n",
		s.Rounds, res.Policy, res.Workers, res.Seed, res.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Wins:         %8d  (%5.2f%%)\n", s.Wins, pct(s.Wins))
	fmt.Fprintf(w, "Losses:       %8d  (%5.2f%%)\n", s.Losses, pct(s.Losses))
	fmt.Fprintf(w, "Ties:         %8d  (%5.2f%%)\n", s.Ties, pct(s.Ties))
	fmt.Fprintf(w, "Naturals:     %8d  (%5.2f%%)\n", s.Naturals, pct(s.Naturals))
	fmt.Fprintf(w, "Player busts: %8d  (%5.2f%%)\n", s.Busts, pct(s.Busts))
	fmt.Fprintf(w, "Dealer busts: %8d  (%5.2f%%)\n", s.DealerBusts, pct(s.DealerBusts))
	fmt.Fprintf(w, "Doubles:      %8d  (%5.2f%%, net %+.0f units)\n", s.Doubles, pct(s.Doubles), s.DoubledNet)
	fmt.Fprintf(w, "\nNet:    %+.0f units\n", s.Sum)
	fmt.Fprintf(w, "Mean:   %+.4f units/round (sd %.4f)\n", s.Mean(), s.StdDev())
	fmt.Fprintf(w, "95%% CI: [%+.4f, %+.4f]\n", lo, hi)
}

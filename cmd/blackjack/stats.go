package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Grosth/BlackjackCSFinal/internal/auth"
	"github.com/Grosth/BlackjackCSFinal/internal/ledger"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// StatsCmd prints a profile and its recent rounds from the ledger
type StatsCmd struct {
	Name   string `arg:"" optional:"" help:"Guest player name (defaults to $USER)"`
	UserID string `help:"Look up by user ID instead of guest name"`
	Limit  int    `default:"10" help:"Number of recent rounds to show"`

	out io.Writer `kong:"-"`
}

func (c *StatsCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Server.LogLevel)

	userID := c.UserID
	if userID == "" {
		name := c.Name
		if name == "" {
			name = defaultName()
		}
		identity, err := auth.NewGuestValidator().Validate(context.Background(), name)
		if err != nil {
			return fmt.Errorf("player name %q: %w", name, err)
		}
		userID = identity.UserID
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	p, err := store.Profile(ctx, userID)
	if err != nil {
		return err
	}
	records, err := store.History(ctx, userID, c.Limit)
	if err != nil {
		return err
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}
	printStats(out, p, records)
	return nil
}

var titleStyle = lipgloss.NewStyle().Bold(true)

func printStats(w io.Writer, p ledger.Profile, records []ledger.Record) {
	fmt.Fprintln(w, titleStyle.Render(p.Username))
	fmt.Fprintf(w, "Chips:    %d\n", p.Chips)
	fmt.Fprintf(w, "Rounds:   %d (%d wins, %d losses, %d ties)\n", p.Rounds(), p.Wins, p.Losses, p.Ties)
	fmt.Fprintf(w, "Win rate: %.1f%%\n", p.WinRate())
	fmt.Fprintf(w, "Since:    %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))

	if len(records) == 0 {
		fmt.Fprintln(w, "\nNo rounds played yet")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("When", "Round", "Bet", "Result", "You", "Dealer")
	for _, r := range records {
		t.Row(
			r.CreatedAt.Local().Format("01-02 15:04:05"),
			r.RoundID,
			strconv.Itoa(r.Bet),
			string(r.Result),
			strconv.Itoa(r.PlayerScore),
			strconv.Itoa(r.DealerScore),
		)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, t.String())
}

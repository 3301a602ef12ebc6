package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Grosth/BlackjackCSFinal/internal/auth"
	"github.com/Grosth/BlackjackCSFinal/internal/client"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
	"github.com/Grosth/BlackjackCSFinal/internal/tui"
)

// PlayCmd opens the terminal table, against the local ledger or a server
type PlayCmd struct {
	Name    string `short:"n" env:"BLACKJACK_NAME" help:"Player name (overrides config, defaults to $USER)"`
	Remote  string `short:"r" help:"Table server URL; plays locally when empty"`
	Token   string `env:"BLACKJACK_TOKEN" help:"Auth token for the server (defaults to the player name)"`
	LogFile string `help:"Log file path (overrides config)"`
	Seed    *int64 `help:"Deterministic RNG seed for local play (optional)"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = cfg.Client.Name
	}
	if name == "" {
		name = defaultName()
	}

	// The TUI owns the terminal, so logs go to a file.
	logPath := cfg.Client.LogFile
	if c.LogFile != "" {
		logPath = c.LogFile
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := newLogger(logFile, cfg.Server.LogLevel)

	ctx, stop := signalContext(logger)
	defer stop()

	var table session.Table
	if c.Remote != "" {
		token := c.Token
		if token == "" {
			token = name
		}
		cl := client.New(client.Options{
			URL:            c.Remote,
			Token:          token,
			RequestTimeout: cfg.RequestTimeout(),
			Logger:         logger,
		})
		if err := cl.Connect(ctx); err != nil {
			return err
		}
		table = cl
		logger.Info("Playing remotely", "server", c.Remote, "player", name)
	} else {
		identity, err := auth.NewGuestValidator().Validate(ctx, name)
		if err != nil {
			return fmt.Errorf("player name %q: %w", name, err)
		}
		store, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		manager, err := newManager(cfg, store, resolveSeed(c.Seed, logger), logger)
		if err != nil {
			return err
		}
		table = session.NewLocalTable(manager, *identity)
		logger.Info("Playing locally", "ledger", cfg.Ledger.Driver, "player", name)
	}
	defer func() { _ = table.Close() }()

	return tui.Run(ctx, table, logger)
}

package main

import (
	"context"
	"os"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/auth"
	"github.com/Grosth/BlackjackCSFinal/internal/server"
)

// ServerCmd runs the table server
type ServerCmd struct {
	Addr string `short:"a" help:"Server address to bind to (overrides config)"`
	Seed *int64 `help:"Deterministic RNG seed for dealing (optional)"`
}

func (c *ServerCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Server.LogLevel)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := newManager(cfg, store, resolveSeed(c.Seed, logger), logger)
	if err != nil {
		return err
	}

	var validator auth.Validator
	if cfg.Auth.URL != "" {
		validator = auth.NewHTTPValidator(cfg.Auth.URL, cfg.Auth.AdminSecret)
		logger.Info("Validating tokens remotely", "url", cfg.Auth.URL)
	} else {
		validator = auth.NewGuestValidator()
		logger.Warn("No auth URL configured, accepting guest names as tokens")
	}

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	s := server.NewServer(addr, manager, validator, logger)

	logger.Info("Starting blackjack server",
		"addr", addr,
		"ledger", cfg.Ledger.Driver,
		"starting_chips", cfg.Table.StartingChips,
		"bets", cfg.Table.BetOptions)

	ctx, stop := signalContext(logger)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

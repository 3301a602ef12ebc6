package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/config"
	"github.com/Grosth/BlackjackCSFinal/internal/ledger"
	"github.com/Grosth/BlackjackCSFinal/internal/randutil"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
	"github.com/charmbracelet/log"
)

// loadConfig reads the config file and applies the global overrides
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger creates a logger at the named level, falling back to info
func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Debug("Received shutdown signal")
	}()
	return ctx, stop
}

// resolveSeed returns the requested seed or a fresh one
func resolveSeed(seed *int64, logger *log.Logger) int64 {
	if seed != nil {
		logger.Info("Using deterministic seed", "seed", *seed)
		return *seed
	}
	s := randutil.NewSeed()
	logger.Debug("Using random seed", "seed", s)
	return s
}

func openStore(cfg *config.Config, logger *log.Logger) (ledger.Store, error) {
	return ledger.Open(ledger.Config{
		Driver:        cfg.Ledger.Driver,
		Path:          cfg.Ledger.Path,
		StartingChips: cfg.Table.StartingChips,
		Logger:        logger,
	})
}

func newManager(cfg *config.Config, store ledger.Store, seed int64, logger *log.Logger) (*session.Manager, error) {
	idle, err := cfg.IdleTimeout()
	if err != nil {
		return nil, err
	}
	return session.NewManager(session.Options{
		Store: store,
		Rules: session.Rules{
			MinBet:     cfg.Table.MinBet,
			MaxBet:     cfg.Table.MaxBet,
			BetOptions: cfg.Table.BetOptions,
		},
		IdleTimeout: idle,
		Seed:        seed,
		Logger:      logger,
	}), nil
}

// defaultName picks a player name when none was configured
func defaultName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "Player"
}

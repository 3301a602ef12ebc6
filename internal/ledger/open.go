package ledger

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Config selects and configures a store
type Config struct {
	Driver        string // "sqlite" or "memory"
	Path          string // sqlite database file
	StartingChips int
	Clock         quartz.Clock
	Logger        *log.Logger
}

// Open creates the store named by cfg.Driver
func Open(cfg Config) (Store, error) {
	if cfg.StartingChips <= 0 {
		cfg.StartingChips = DefaultStartingChips
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	switch cfg.Driver {
	case "memory":
		cfg.Logger.Info("Using in-memory ledger", "starting_chips", cfg.StartingChips)
		return NewMemoryStore(cfg.StartingChips, cfg.Clock), nil
	case "sqlite", "":
		return OpenSQLite(cfg.Path, cfg.StartingChips, cfg.Clock, cfg.Logger)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}

// Package config loads the HCL configuration shared by the blackjack server,
// the terminal client and the offline tools.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete configuration
type Config struct {
	Server ServerSettings
	Table  TableSettings
	Ledger LedgerSettings
	Auth   AuthSettings
	Client ClientSettings
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// TableSettings are the house rules around the engine: balances, bet limits
// and how long an idle session is kept.
type TableSettings struct {
	StartingChips int    `hcl:"starting_chips,optional"`
	MinBet        int    `hcl:"min_bet,optional"`
	MaxBet        int    `hcl:"max_bet,optional"`
	BetOptions    []int  `hcl:"bet_options,optional"`
	IdleTimeout   string `hcl:"idle_timeout,optional"`
}

// LedgerSettings selects the ledger store
type LedgerSettings struct {
	Driver string `hcl:"driver,optional"`
	Path   string `hcl:"path,optional"`
}

// AuthSettings configures the external token validator. An empty URL runs
// the server in guest mode.
type AuthSettings struct {
	URL         string `hcl:"url,optional"`
	AdminSecret string `hcl:"admin_secret,optional"`
}

// ClientSettings contains terminal client settings
type ClientSettings struct {
	URL            string `hcl:"url,optional"`
	Name           string `hcl:"name,optional"`
	RequestTimeout int    `hcl:"request_timeout,optional"`
	LogFile        string `hcl:"log_file,optional"`
}

// fileConfig mirrors Config with every block optional
type fileConfig struct {
	Server *ServerSettings `hcl:"server,block"`
	Table  *TableSettings  `hcl:"table,block"`
	Ledger *LedgerSettings `hcl:"ledger,block"`
	Auth   *AuthSettings   `hcl:"auth,block"`
	Client *ClientSettings `hcl:"client,block"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Table: TableSettings{
			StartingChips: 1000,
			MinBet:        10,
			MaxBet:        500,
			BetOptions:    []int{10, 25, 50, 100},
			IdleTimeout:   "30m",
		},
		Ledger: LedgerSettings{
			Driver: "sqlite",
			Path:   "blackjack.db",
		},
		Client: ClientSettings{
			URL:            "ws://localhost:8080/ws",
			RequestTimeout: 10,
			LogFile:        "blackjack-client.log",
		},
	}
}

// Load loads configuration from an HCL file. A missing file yields the
// defaults, and so does every attribute the file leaves out.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	return fc.merge(Default()), nil
}

func (fc fileConfig) merge(c *Config) *Config {
	if s := fc.Server; s != nil {
		setString(&c.Server.Address, s.Address)
		setInt(&c.Server.Port, s.Port)
		setString(&c.Server.LogLevel, s.LogLevel)
	}
	if t := fc.Table; t != nil {
		setInt(&c.Table.StartingChips, t.StartingChips)
		setInt(&c.Table.MinBet, t.MinBet)
		setInt(&c.Table.MaxBet, t.MaxBet)
		if len(t.BetOptions) > 0 {
			c.Table.BetOptions = slices.Clone(t.BetOptions)
		}
		setString(&c.Table.IdleTimeout, t.IdleTimeout)
	}
	if l := fc.Ledger; l != nil {
		setString(&c.Ledger.Driver, l.Driver)
		setString(&c.Ledger.Path, l.Path)
	}
	if a := fc.Auth; a != nil {
		setString(&c.Auth.URL, a.URL)
		setString(&c.Auth.AdminSecret, a.AdminSecret)
	}
	if cl := fc.Client; cl != nil {
		setString(&c.Client.URL, cl.URL)
		setString(&c.Client.Name, cl.Name)
		setInt(&c.Client.RequestTimeout, cl.RequestTimeout)
		setString(&c.Client.LogFile, cl.LogFile)
	}
	return c
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Server.LogLevel) {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}

	t := c.Table
	if t.StartingChips <= 0 {
		return fmt.Errorf("table: starting chips must be positive")
	}
	if t.MinBet <= 0 {
		return fmt.Errorf("table: min bet must be positive")
	}
	if t.MaxBet < t.MinBet {
		return fmt.Errorf("table: max bet %d is below min bet %d", t.MaxBet, t.MinBet)
	}
	if len(t.BetOptions) == 0 {
		return fmt.Errorf("table: at least one bet option must be configured")
	}
	for _, b := range t.BetOptions {
		if b < t.MinBet || b > t.MaxBet {
			return fmt.Errorf("table: bet option %d outside [%d, %d]", b, t.MinBet, t.MaxBet)
		}
	}
	if _, err := c.IdleTimeout(); err != nil {
		return err
	}

	switch c.Ledger.Driver {
	case "memory":
	case "sqlite":
		if c.Ledger.Path == "" {
			return fmt.Errorf("ledger: sqlite driver needs a path")
		}
	default:
		return fmt.Errorf("ledger: unknown driver %q", c.Ledger.Driver)
	}

	if c.Client.RequestTimeout <= 0 {
		return fmt.Errorf("client: request timeout must be positive")
	}

	return nil
}

// IdleTimeout parses the table's idle timeout. Zero disables expiry.
func (c *Config) IdleTimeout() (time.Duration, error) {
	if c.Table.IdleTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Table.IdleTimeout)
	if err != nil {
		return 0, fmt.Errorf("table: invalid idle timeout %q: %w", c.Table.IdleTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("table: idle timeout must not be negative")
	}
	return d, nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RequestTimeout is the client's per-request timeout
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Client.RequestTimeout) * time.Second
}

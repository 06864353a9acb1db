package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/cryptify/internal/cryptox"
	"github.com/dmitrijs2005/cryptify/internal/logging"
	"github.com/dmitrijs2005/cryptify/internal/repositories/repomanager"
)

// Config holds runtime settings for the cryptify CLI.
type Config struct {
	DatabaseDriver string
	DatabaseDSN    string
	LogLevel       string
	LogFormat      string
	IdleTimeout    time.Duration
	KDF            cryptox.KDFParams
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = repomanager.DriverSQLite
	c.DatabaseDSN = filepath.Join("data", "cryptify.db")
	c.LogLevel = "warn"
	c.LogFormat = "text"
	c.IdleTimeout = 10 * time.Minute
	c.KDF = cryptox.DefaultKDFParams
}

// Validate rejects settings that would only fail later at start-up.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case repomanager.DriverSQLite, repomanager.DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", repomanager.ErrUnsupportedDriver, c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must not be negative")
	}
	return c.KDF.Validate()
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

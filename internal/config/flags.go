package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/cryptify/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so -c/-config and unknown flags do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-d", "-l", "-f", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDriver, "r", cfg.DatabaseDriver, "database driver (sqlite or pgx)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (text or json)")
	idle := fs.Int("i", int(cfg.IdleTimeout.Minutes()), "idle timeout before automatic logout (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.IdleTimeout = time.Duration(*idle) * time.Minute
		}
	})
}

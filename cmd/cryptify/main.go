package main

import (
	"context"
	"log"
	"os"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/cryptify/internal/buildinfo"
	"github.com/dmitrijs2005/cryptify/internal/cli"
	"github.com/dmitrijs2005/cryptify/internal/config"
	"github.com/dmitrijs2005/cryptify/internal/logging"
	"github.com/dmitrijs2005/cryptify/internal/repositories/repomanager"
	"github.com/dmitrijs2005/cryptify/internal/vault"
)

func main() {
	// Wipe every protected key on SIGINT/SIGTERM and on normal exit.
	memguard.CatchSignal(func(os.Signal) {}, os.Interrupt, syscall.SIGTERM)
	defer memguard.Purge()

	buildinfo.PrintBuildData(os.Stdout)

	if err := run(); err != nil {
		memguard.Purge()
		log.Fatalf("%v", err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx := context.Background()

	db, rm, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := vault.New(db, rm, logger, vault.WithKDFParams(cfg.KDF))
	if err != nil {
		return err
	}

	logger.Debug(ctx, "vault opened", "driver", cfg.DatabaseDriver)

	app := cli.NewApp(v.NewSession(), logger, os.Stdin, os.Stdout, cfg.IdleTimeout)
	app.Run(ctx)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/transferguard/internal/buildinfo"
	"github.com/dmitrijs2005/transferguard/internal/client/cli"
	"github.com/dmitrijs2005/transferguard/internal/client/client"
	"github.com/dmitrijs2005/transferguard/internal/client/config"
	"github.com/dmitrijs2005/transferguard/internal/client/services"
	"github.com/dmitrijs2005/transferguard/internal/flagx"
	"github.com/dmitrijs2005/transferguard/internal/logging"
	"github.com/dmitrijs2005/transferguard/internal/storage"
)

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	if err := run(); err != nil {
		memguard.Purge()
		log.Fatalf("%v", err)
	}
}

func run() error {
	buildinfo.PrintBuildData(os.Stderr)

	args := os.Args[1:]
	cfg := config.LoadConfig(args)

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := client.InitDatabase(ctx, cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer db.Close()

	store, err := storage.New(ctx, cfg.Storage(logger))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	svc := services.NewTransferService(db, store, services.Options{
		ChunkSize:      cfg.ChunkSize,
		Workers:        cfg.Workers,
		Cipher:         cfg.Cipher,
		RequestTimeout: cfg.RequestTimeout,
		StorageBackend: cfg.StorageBackend,
		Logger:         logger,
	})
	app := cli.NewApp(svc, os.Stdin, os.Stdout)

	if cmd := flagx.Positional(args, config.ValuedFlags); len(cmd) > 0 {
		err := app.Exec(ctx, cmd)
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, "usage: transferguard [flags] send <path> | receive <id> <out> | list | show <id> | delete <id>")
		}
		return err
	}

	app.Run(ctx)
	return nil
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dcschmid/check-and-download-cover/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	config.ApplyEnv()

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: "config.toml",
		Logger:     logger,
	})

	app := &cli.Command{
		Name:    "check-and-download-cover",
		Usage:   "Resolve and download album cover art for JSON catalogs",
		Version: "1.0.0",
		Flags:   resolveFlags(),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "catalog"},
		},
		Action:   runner.Resolve,
		Commands: runner.register(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("interrupt received, cancelling")
		cancel()
	}()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted, catalog saved with the covers downloaded so far")
			os.Exit(130)
		}
		logger.Fatalf("application error: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dcschmid/check-and-download-cover/internal/repositories"
	"github.com/dcschmid/check-and-download-cover/internal/shared"
	"github.com/urfave/cli/v3"
)

// InitProject writes the starter configuration file and prepares the
// journal database it names. Running it twice is harmless.
func (r *Runner) InitProject(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Warn("config file already exists, leaving it untouched", "path", configPath)
		r.writePlain("Config already exists at %s, leaving it untouched\n", configPath)
	} else {
		r.logger.Info("config file created", "path", configPath)
		r.writePlain("✓ Config written to %s\n", configPath)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if config.Journal.Path == "" {
		r.writePlain("Journal disabled; set journal.path in %s to record runs\n", configPath)
		return nil
	}

	db, err := shared.NewDatabase(config.Journal.Path)
	if err != nil {
		return fmt.Errorf("failed to create journal database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Journal.MaxOpenConns, config.Journal.MaxIdleConns)

	if _, err := repositories.NewResolutionRepository(db); err != nil {
		return fmt.Errorf("failed to prepare journal schema: %w", err)
	}

	r.logger.Info("journal ready", "path", config.Journal.Path)
	r.writePlainln("✓ Journal database ready at %s", config.Journal.Path)

	return nil
}

// initCommand writes a starter config and prepares the journal database
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter config.toml and prepare the journal database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.InitProject,
	}
}

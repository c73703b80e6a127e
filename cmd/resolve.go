package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dcschmid/check-and-download-cover/internal/artwork"
	"github.com/dcschmid/check-and-download-cover/internal/formatter"
	"github.com/dcschmid/check-and-download-cover/internal/match"
	"github.com/dcschmid/check-and-download-cover/internal/pipeline"
	"github.com/dcschmid/check-and-download-cover/internal/providers"
	"github.com/dcschmid/check-and-download-cover/internal/repositories"
	"github.com/dcschmid/check-and-download-cover/internal/shared"
	"github.com/urfave/cli/v3"
)

// resolveFlags defines the flags of the root command. String overrides
// only apply when non-empty, so config values survive an unset flag.
func resolveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "covers-dir",
			Usage: "Directory cover images are written to",
		},
		&cli.StringFlag{
			Name:  "placeholder",
			Usage: "coverSrc value assigned when no provider has a cover",
		},
		&cli.FloatFlag{
			Name:  "delay",
			Usage: "Pause between provider calls, in seconds",
		},
		&cli.StringFlag{
			Name:  "journal",
			Usage: "SQLite database recording the outcome of every record",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a per-album report file (.csv or .md)",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

// Resolve runs cover resolution for every album of the catalog named by
// the positional argument.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	catalogPath := cmd.StringArg("catalog")
	if catalogPath == "" {
		return fmt.Errorf("%w: path to a catalog JSON file", shared.ErrMissingArgument)
	}

	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if cmd.IsSet("config") {
		r.config = r.loadConfig(cmd.String("config"))
	}

	conf := r.config.Resolver
	if dir := cmd.String("covers-dir"); dir != "" {
		conf.CoversDir = dir
	}
	if placeholder := cmd.String("placeholder"); placeholder != "" {
		conf.Placeholder = placeholder
	}
	if cmd.IsSet("delay") {
		conf.DelaySeconds = cmd.Float("delay")
	}
	journalPath := r.config.Journal.Path
	if path := cmd.String("journal"); path != "" {
		journalPath = path
	}

	engine := r.engine
	if engine == nil {
		var cleanup func()
		engine, cleanup = r.buildEngine(conf, journalPath)
		defer cleanup()
	}

	r.logger.Info("starting cover run", "catalog", catalogPath)
	r.writePlain("Resolving covers for %s\n\n", catalogPath)

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan pipeline.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case pipeline.LoadCatalog:
				r.writePlain("📚 %s\n\n", update.Message)
			case pipeline.ResolveCover:
				r.writePlain("🔍 %s\n", update.Message)
			case pipeline.DownloadCover, pipeline.AssignPlaceholder:
				r.writePlain("   %s\n", update.Message)
			case pipeline.SaveCatalog:
				r.writePlain("\n💾 %s\n", update.Message)
			}
		}
	}()

	// Run the engine operation and wait for the updates to drain
	result, err := engine.Run(ctx, progressCh, catalogPath)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writeSummary(result)

	if cmd.IsSet("report") {
		written, err := formatter.WriteReport(result, cmd.String("report"))
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", written)
		r.writePlain("\nReport written to %s\n", written)
	}

	return nil
}

// buildEngine assembles the provider chain, the image fetcher, and the
// optional journal behind the engine interface. The returned cleanup
// closes the journal database.
func (r *Runner) buildEngine(conf shared.ResolverConfig, journalPath string) (Engine, func()) {
	creds := r.config.Credentials
	provs := []providers.Provider{
		providers.NewSpotifyProvider(creds.Spotify.ClientID, creds.Spotify.ClientSecret, r.logger),
		providers.NewDeezerProvider(r.logger),
		providers.NewLastFMProvider(creds.LastFM.APIKey, r.logger),
		providers.NewDiscogsProvider(creds.Discogs.Token, r.logger),
		providers.NewMusicBrainzProvider(r.logger),
	}
	chain := providers.NewChain(provs, match.NewVerifier(), providers.NewThrottle(conf.Delay()), r.logger)

	cleanup := func() {}
	var journal pipeline.Journal
	if journalPath != "" {
		if db, err := shared.NewDatabase(journalPath); err != nil {
			r.logger.Warn("journal disabled", "path", journalPath, "error", err)
		} else {
			shared.ConfigureDatabase(db, r.config.Journal.MaxOpenConns, r.config.Journal.MaxIdleConns)
			if repo, err := repositories.NewResolutionRepository(db); err != nil {
				r.logger.Warn("journal disabled", "path", journalPath, "error", err)
				db.Close()
			} else {
				journal = repo
				cleanup = func() { db.Close() }
			}
		}
	}

	return pipeline.NewCoverEngine(chain, artwork.NewFetcher(r.logger), journal, conf, r.logger), cleanup
}

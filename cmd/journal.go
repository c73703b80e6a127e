package main

import (
	"context"
	"fmt"

	"github.com/dcschmid/check-and-download-cover/internal/formatter"
	"github.com/dcschmid/check-and-download-cover/internal/repositories"
	"github.com/dcschmid/check-and-download-cover/internal/shared"
	"github.com/urfave/cli/v3"
)

// JournalList prints rows from the resolution journal, newest first, or
// all rows of one run when --run is given.
func (r *Runner) JournalList(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Journal.Path
	if p := cmd.String("journal"); p != "" {
		path = p
	}
	if path == "" {
		return fmt.Errorf("%w: no journal database (set journal.path or pass --journal)", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}
	defer db.Close()

	repo, err := repositories.NewResolutionRepository(db)
	if err != nil {
		return fmt.Errorf("failed to prepare journal schema: %w", err)
	}

	var rows []repositories.Resolution
	if runID := cmd.String("run"); runID != "" {
		rows, err = repo.ByRun(runID)
	} else {
		rows, err = repo.Recent(cmd.Int("limit"))
	}
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, true)
	}

	if len(rows) == 0 {
		r.writePlain("Journal is empty\n")
		return nil
	}

	for _, row := range rows {
		r.writePlain("%s %s  %s: %s - %s",
			formatter.StatusMark(row.Status), row.CreatedAt.Format("2006-01-02 15:04"), row.Category, row.Artist, row.Album)
		if row.Provider != "" {
			r.writePlain(" (%s)", row.Provider)
		}
		r.writePlain(" [%s]\n", row.Status)
	}

	return nil
}

// journalCommand inspects the outcomes recorded by previous runs
func journalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "List resolution outcomes from previous runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "journal",
				Usage: "SQLite journal database path",
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Only list rows from this run ID",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of rows to return",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.JournalList,
	}
}

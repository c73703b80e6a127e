// package pipeline implements the resolution run over an album catalog.
//
// The core abstraction is CoverEngine, which loads a catalog, resolves and
// downloads missing covers record by record, and writes the catalog back.
// Operations emit progress updates via channels for non-blocking status
// reporting to the CLI layer.
package pipeline

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"

	"github.com/dcschmid/check-and-download-cover/internal/catalog"
	"github.com/dcschmid/check-and-download-cover/internal/providers"
	"github.com/dcschmid/check-and-download-cover/internal/repositories"
	"github.com/dcschmid/check-and-download-cover/internal/shared"
)

// Resolver finds a verified cover candidate for a catalog record.
type Resolver interface {
	Resolve(ctx context.Context, q providers.Query) (*providers.Candidate, error)
}

// Downloader materializes a remote image as a normalized local cover file.
type Downloader interface {
	Materialize(ctx context.Context, imageURL, dest string) error
}

// Journal records one row per processed record.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type Journal interface {
	Record(res *repositories.Resolution) error
}

// RunResult contains all counters from a full resolution run.
type RunResult struct {
	RunID        string                    // Unique ID shared with the run's journal rows
	CatalogPath  string                    // Catalog the run operated on
	Category     string                    // Category label derived from the catalog filename
	Total        int                       // Records in the catalog
	Resolved     int                       // Covers downloaded this run
	CacheHits    int                       // Covers already on disk
	Skipped      int                       // Records skipped without lookups
	Placeholders int                       // Records assigned the placeholder
	Failed       int                       // Download failures
	PerProvider  map[string]int            // Resolved counts keyed by provider name
	Outcomes     []repositories.Resolution // Per-record outcomes in catalog order
}

// tally folds one record outcome into the run counters.
func (r *RunResult) tally(row repositories.Resolution) {
	switch row.Status {
	case repositories.StatusResolved:
		r.Resolved++
		r.PerProvider[row.Provider]++
	case repositories.StatusCacheHit:
		r.CacheHits++
	case repositories.StatusSkipped:
		r.Skipped++
	case repositories.StatusPlaceholder:
		r.Placeholders++
	case repositories.StatusDownloadFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, row)
}

// CoverEngine walks a catalog and fills in missing cover art.
// Contains dependencies on the provider chain, the image fetcher and the
// optional journal.
type CoverEngine struct {
	resolver    Resolver
	downloader  Downloader
	journal     Journal
	coversDir   string
	placeholder string
	logger      *log.Logger
}

// NewCoverEngine creates a CoverEngine with the provided dependencies.
// A nil journal disables journaling.
func NewCoverEngine(resolver Resolver, downloader Downloader, journal Journal, conf shared.ResolverConfig, logger *log.Logger) *CoverEngine {
	return &CoverEngine{
		resolver:    resolver,
		downloader:  downloader,
		journal:     journal,
		coversDir:   conf.CoversDir,
		placeholder: conf.Placeholder,
		logger:      logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *CoverEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run resolves every record of the catalog at catalogPath.
//
// The catalog is written back exactly once, after the last record, so a
// run that is cut short by ctx still persists the covers it managed to
// download. Every record's outcome lands in the returned RunResult and,
// when a journal is configured, in one journal row.
func (e *CoverEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, catalogPath string) (*RunResult, error) {
	records, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:       shared.GenerateID(),
		CatalogPath: catalogPath,
		Category:    catalog.Category(catalogPath),
		Total:       len(records),
		PerProvider: map[string]int{},
	}

	e.logger.Info("run started",
		"run", result.RunID, "catalog", catalogPath, "category", result.Category, "albums", len(records))
	e.sendProgress(progress, loadedCatalogUpdate(len(records), catalogPath))

	var runErr error
	for i := range records {
		record := &records[i]
		e.sendProgress(progress, resolvingUpdate(i+1, len(records), record.Artist, record.Album))

		row, err := e.processRecord(ctx, progress, i+1, len(records), result.Category, record)
		if err != nil {
			runErr = err
			break
		}

		row.RunID = result.RunID
		result.tally(row)

		if e.journal != nil {
			if err := e.journal.Record(&row); err != nil {
				e.logger.Warn("journal write failed", "error", err)
			}
		}
	}

	if err := catalog.Save(catalogPath, records); err != nil {
		return result, err
	}
	e.sendProgress(progress, savedCatalogUpdate(len(records), catalogPath))

	e.logger.Info("run finished",
		"run", result.RunID,
		"resolved", result.Resolved,
		"cache_hits", result.CacheHits,
		"skipped", result.Skipped,
		"placeholders", result.Placeholders,
		"failed", result.Failed)

	return result, runErr
}

// processRecord applies the per-record decision sequence and mutates the
// record's CoverSrc where an outcome calls for it. A returned error means
// the run should stop; record-level problems are outcomes, not errors.
func (e *CoverEngine) processRecord(ctx context.Context, progress chan<- ProgressUpdate, step, total int, category string, record *catalog.AlbumRecord) (repositories.Resolution, error) {
	row := repositories.Resolution{
		Category: category,
		Artist:   record.Artist,
		Album:    record.Album,
	}

	if !record.Valid() {
		e.logger.Warn("skipping record with missing fields", "artist", record.Artist, "album", record.Album)
		row.Status = repositories.StatusSkipped
		row.Detail = "missing artist or album"
		e.sendProgress(progress, skippedUpdate(step, total, record.Album, row.Detail))
		return row, nil
	}

	if record.CoverSrc == e.placeholder {
		row.Status = repositories.StatusSkipped
		row.Detail = "placeholder from an earlier run"
		e.sendProgress(progress, skippedUpdate(step, total, record.Album, row.Detail))
		return row, nil
	}

	if record.CoverSrc != "" && fileExists(catalog.HrefPath(record.CoverSrc)) {
		row.Status = repositories.StatusSkipped
		row.Detail = "cover already linked"
		e.sendProgress(progress, skippedUpdate(step, total, record.Album, row.Detail))
		return row, nil
	}

	// The link may be missing while the file from an earlier run is not.
	dest := catalog.ImagePath(e.coversDir, category, record.Artist, record.Album)
	if fileExists(dest) {
		record.CoverSrc = catalog.Href(dest)
		row.Status = repositories.StatusCacheHit
		row.CoverPath = dest
		e.sendProgress(progress, cacheHitUpdate(step, total, record.Album))
		return row, nil
	}

	q := providers.Query{Artist: record.Artist, Album: record.Album, Year: record.Year}
	cand, err := e.resolver.Resolve(ctx, q)
	if err != nil {
		if !errors.Is(err, shared.ErrExhausted) {
			return row, err
		}
		record.CoverSrc = e.placeholder
		row.Status = repositories.StatusPlaceholder
		row.Detail = "no provider had a verified cover"
		e.sendProgress(progress, placeholderUpdate(step, total, record.Album))
		return row, nil
	}

	if err := e.downloader.Materialize(ctx, cand.ImageURL, dest); err != nil {
		e.logger.Error("cover download failed",
			"artist", record.Artist, "album", record.Album, "provider", cand.Provider, "error", err)
		row.Status = repositories.StatusDownloadFailed
		row.Provider = cand.Provider
		row.Detail = err.Error()
		e.sendProgress(progress, downloadFailedUpdate(step, total, record.Album, err))
		return row, nil
	}

	record.CoverSrc = catalog.Href(dest)
	row.Status = repositories.StatusResolved
	row.Provider = cand.Provider
	row.CoverPath = dest
	e.sendProgress(progress, resolvedUpdate(step, total, record.Album, cand.Provider))
	return row, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

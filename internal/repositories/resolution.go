package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dcschmid/check-and-download-cover/internal/shared"
)

// Resolution statuses, one per possible outcome of a catalog record.
const (
	StatusResolved       = "resolved"
	StatusCacheHit       = "cache_hit"
	StatusPlaceholder    = "placeholder"
	StatusDownloadFailed = "download_failed"
	StatusSkipped        = "skipped"
)

// Resolution is one journal row: the outcome of a single catalog record
// within a single run.
type Resolution struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Category  string    `json:"category"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	Status    string    `json:"status"`
	Provider  string    `json:"provider,omitempty"`
	CoverPath string    `json:"cover_path,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const createResolutionsTable = `
	CREATE TABLE IF NOT EXISTS resolutions (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		category TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		status TEXT NOT NULL,
		provider TEXT,
		cover_path TEXT,
		detail TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resolutions_run_id ON resolutions(run_id);
`

// ResolutionRepository persists journal rows.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a ResolutionRepository and its table
// when the table does not exist yet.
func NewResolutionRepository(db *sql.DB) (*ResolutionRepository, error) {
	if _, err := db.Exec(createResolutionsTable); err != nil {
		return nil, fmt.Errorf("failed to create resolutions table: %w", err)
	}

	return &ResolutionRepository{db: db}, nil
}

// Record inserts one journal row. A missing ID or timestamp is filled in.
func (r *ResolutionRepository) Record(res *Resolution) error {
	if res.ID == "" {
		res.ID = shared.GenerateID()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO resolutions (id, run_id, category, artist, album, status, provider, cover_path, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		res.ID,
		res.RunID,
		res.Category,
		res.Artist,
		res.Album,
		res.Status,
		res.Provider,
		res.CoverPath,
		res.Detail,
		res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	return nil
}

// Recent returns the newest rows across all runs, newest first.
func (r *ResolutionRepository) Recent(limit int) ([]Resolution, error) {
	query := `
		SELECT id, run_id, category, artist, album, status, provider, cover_path, detail, created_at
		FROM resolutions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	return collectResolutions(rows)
}

// ByRun returns every row of one run in the order it was written.
func (r *ResolutionRepository) ByRun(runID string) ([]Resolution, error) {
	query := `
		SELECT id, run_id, category, artist, album, status, provider, cover_path, detail, created_at
		FROM resolutions
		WHERE run_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	return collectResolutions(rows)
}

// collectResolutions scans every remaining row from a query.
func collectResolutions(rows *sql.Rows) ([]Resolution, error) {
	var resolutions []Resolution
	for rows.Next() {
		var (
			res       Resolution
			provider  sql.NullString
			coverPath sql.NullString
			detail    sql.NullString
		)

		err := rows.Scan(
			&res.ID, &res.RunID, &res.Category, &res.Artist, &res.Album,
			&res.Status, &provider, &coverPath, &detail, &res.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}

		res.Provider = provider.String
		res.CoverPath = coverPath.String
		res.Detail = detail.String
		resolutions = append(resolutions, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return resolutions, nil
}

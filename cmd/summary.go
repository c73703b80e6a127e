package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/dcschmid/check-and-download-cover/internal/pipeline"
	"github.com/dcschmid/check-and-download-cover/internal/repositories"
)

var styles = newPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// palette is a simple stylesheet built with named [lipgloss.Style] fields
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func newPalette(t, s, e, w, h string) *palette {
	return &palette{
		title: newBold(t),
		ok:    newBold(s),
		err:   newBold(e),
		warn:  newStyle(w),
		help:  newEm(h),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

func newEm(fg string) lipgloss.Style {
	return newStyle(fg).Italic(true)
}

// writeSummary prints the end-of-run box for a finished resolution run.
func (r *Runner) writeSummary(result *pipeline.RunResult) {
	r.writePlain("\n")
	r.writePlainHeader(styles.title.Render("Cover Run Complete"))
	r.writePlain("Catalog: %s (%d albums)\n", result.CatalogPath, result.Total)
	r.writePlain("Run: %s\n\n", result.RunID)

	r.writePlain("%s\n", styles.ok.Render(fmt.Sprintf("✓ Resolved: %d", result.Resolved)))
	r.writePlain("✓ Already on disk: %d\n", result.CacheHits)
	r.writePlain("- Skipped: %d\n", result.Skipped)

	placeholders := fmt.Sprintf("✗ Placeholders: %d", result.Placeholders)
	if result.Placeholders > 0 {
		placeholders = styles.warn.Render(placeholders)
	}
	r.writePlain("%s\n", placeholders)

	failed := fmt.Sprintf("✗ Failed downloads: %d", result.Failed)
	if result.Failed > 0 {
		failed = styles.err.Render(failed)
	}
	r.writePlain("%s\n", failed)

	if len(result.PerProvider) > 0 {
		names := make([]string, 0, len(result.PerProvider))
		for name := range result.PerProvider {
			names = append(names, name)
		}
		sort.Strings(names)

		r.writePlain("\nCovers per provider:\n")
		for _, name := range names {
			r.writePlain("  %s: %d\n", name, result.PerProvider[name])
		}
	}

	var missing []repositories.Resolution
	for _, row := range result.Outcomes {
		switch row.Status {
		case repositories.StatusPlaceholder, repositories.StatusDownloadFailed:
			missing = append(missing, row)
		}
	}
	if len(missing) > 0 {
		r.writePlain("\nStill without a cover:\n")
		for _, row := range missing {
			r.writePlain("  - %s - %s (%s)\n", row.Artist, row.Album, row.Status)
		}
		r.writePlain("%s\n", styles.help.Render("Albums holding the placeholder stay skipped until their coverSrc is cleared."))
	}
}

// package formatter provides functions to export run reports to various formats (CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dcschmid/check-and-download-cover/internal/pipeline"
	"github.com/dcschmid/check-and-download-cover/internal/repositories"
)

// ExportToCSV converts a RunResult to CSV format with columns: Category, Artist, Album, Status, Provider, CoverPath, Detail
func ExportToCSV(result *pipeline.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Category", "Artist", "Album", "Status", "Provider", "CoverPath", "Detail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, outcome := range result.Outcomes {
		record := []string{
			outcome.Category,
			outcome.Artist,
			outcome.Album,
			outcome.Status,
			outcome.Provider,
			outcome.CoverPath,
			outcome.Detail,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a RunResult to a Markdown report with counters and a per-album listing
func ExportToMarkdown(result *pipeline.RunResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Cover report: %s\n\n", result.Category))
	buf.WriteString(fmt.Sprintf("**Run**: %s\n", result.RunID))
	buf.WriteString(fmt.Sprintf("**Catalog**: %s\n", result.CatalogPath))
	buf.WriteString(fmt.Sprintf("**Albums**: %d\n\n", result.Total))

	buf.WriteString(fmt.Sprintf("**Resolved**: %d\n", result.Resolved))
	buf.WriteString(fmt.Sprintf("**Cache hits**: %d\n", result.CacheHits))
	buf.WriteString(fmt.Sprintf("**Skipped**: %d\n", result.Skipped))
	buf.WriteString(fmt.Sprintf("**Placeholders**: %d\n", result.Placeholders))
	buf.WriteString(fmt.Sprintf("**Failed**: %d\n\n", result.Failed))

	if len(result.PerProvider) > 0 {
		buf.WriteString("## Providers\n\n")

		names := make([]string, 0, len(result.PerProvider))
		for name := range result.PerProvider {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			buf.WriteString(fmt.Sprintf("- %s: %d\n", name, result.PerProvider[name]))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Albums\n\n")
	for i, outcome := range result.Outcomes {
		providerPart := ""
		if outcome.Provider != "" {
			providerPart = fmt.Sprintf(" (%s)", outcome.Provider)
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s - %s%s [%s]\n",
			i+1, StatusMark(outcome.Status), outcome.Artist, outcome.Album, providerPart, outcome.Status))
	}

	return buf.Bytes(), nil
}

// StatusMark maps an outcome status to the list marker used in reports
// and journal listings.
func StatusMark(status string) string {
	switch status {
	case repositories.StatusResolved, repositories.StatusCacheHit:
		return "✓"
	case repositories.StatusPlaceholder, repositories.StatusDownloadFailed:
		return "✗"
	default:
		return "-"
	}
}

// WriteReport writes a report in the format implied by the file extension:
// Markdown for .md, CSV for everything else.
func WriteReport(result *pipeline.RunResult, path string) (string, error) {
	if ext := filepath.Ext(path); ext == ".md" || ext == ".markdown" {
		return WriteReportMarkdown(result, path)
	}
	return WriteReportCSV(result, path)
}

// WriteReportCSV exports a run to a CSV file.
//
// Defaults to {runID}_report.csv as the filename.
func WriteReportCSV(result *pipeline.RunResult, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_report.csv", result.RunID)
	}

	data, err := ExportToCSV(result)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}

// WriteReportMarkdown exports a run to a Markdown file.
//
// Defaults to {runID}_report.md as the filename.
func WriteReportMarkdown(result *pipeline.RunResult, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_report.md", result.RunID)
	}

	data, err := ExportToMarkdown(result)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return path, nil
}

package pipeline

import "fmt"

// ProgressUpdate represents a progress event during a resolution run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current record number within the run
	Total   int    // Total records in the catalog
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	LoadCatalog Phase = iota
	ResolveCover
	DownloadCover
	AssignPlaceholder
	SaveCatalog
)

func (p Phase) String() string {
	switch p {
	case LoadCatalog:
		return "load_catalog"
	case ResolveCover:
		return "resolve_cover"
	case DownloadCover:
		return "download_cover"
	case AssignPlaceholder:
		return "assign_placeholder"
	case SaveCatalog:
		return "save_catalog"
	default:
		return ""
	}
}

func loadedCatalogUpdate(total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadCatalog,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Loaded %d albums from %s", total, path),
	}
}

func resolvingUpdate(step, total int, artist, album string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveCover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, artist, album),
	}
}

func skippedUpdate(step, total int, album, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveCover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%s)", step, total, album, reason),
	}
}

func cacheHitUpdate(step, total int, album string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveCover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (already on disk)", step, total, album),
	}
}

func resolvedUpdate(step, total int, album, provider string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadCover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, album, provider),
	}
}

func downloadFailedUpdate(step, total int, album string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadCover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, album, err),
	}
}

func placeholderUpdate(step, total int, album string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AssignPlaceholder,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s (placeholder assigned)", step, total, album),
	}
}

func savedCatalogUpdate(total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveCatalog,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Catalog written to %s", path),
	}
}

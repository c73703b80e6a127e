// Package catalog loads and saves album catalog files.
//
// A catalog is a JSON array of album objects. The resolver reads artist,
// album and year, writes coverSrc, and carries every other field through
// untouched. The catalog filename doubles as the category label that names
// the image subdirectory, so "rock.json" stores covers under
// bandcover/rock/.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

// Load reads and parses the catalog file at path.
//
// This is the only operation whose failure aborts a run, so errors carry
// the file path for diagnosis.
func Load(path string) ([]AlbumRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var records []AlbumRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	return records, nil
}

// Save writes the full record sequence back to path, two-space indented,
// preserving record order.
func Save(path string, records []AlbumRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}

	return nil
}

// Category derives the image subdirectory name from the catalog filename,
// e.g. "rock" for /data/rock.json.
func Category(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Slug returns the filesystem-safe name shared by every artifact of an
// artist/album pair.
func Slug(artist, album string) string {
	return slug.Make(artist + "_" + album)
}

// ImagePath returns the deterministic location of a record's cover image
// below the covers directory.
func ImagePath(coversDir, category, artist, album string) string {
	return filepath.Join(coversDir, category, Slug(artist, album)+".jpg")
}

// Href converts a stored image path to the web-root form written to
// coverSrc.
func Href(path string) string {
	return "/" + filepath.ToSlash(path)
}

// HrefPath resolves a coverSrc value back to a local filesystem path for
// existence checks. coverSrc values are web-root paths ("/bandcover/...")
// relative to the directory the resolver runs in.
func HrefPath(href string) string {
	return filepath.FromSlash(strings.TrimPrefix(href, "/"))
}

// package match implements the verification policy that gates provider
// results before a cover is accepted
package match

import (
	"fmt"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dcschmid/check-and-download-cover/internal/providers"
)

// Acceptance thresholds for token-sort similarity scores.
const (
	DefaultArtistThreshold = 90
	DefaultAlbumThreshold  = 85
)

// DefaultAlbumTypes lists the release classifications accepted as albums.
// Singles, remixes and bootlegs are rejected regardless of name similarity.
func DefaultAlbumTypes() []string {
	return []string{"album", "ep", "compilation", "live"}
}

// Verifier scores provider candidates against the requested artist, album
// and year.
type Verifier struct {
	ArtistThreshold int
	AlbumThreshold  int
	AlbumTypes      []string
}

// NewVerifier returns a Verifier with the default thresholds and album
// types.
func NewVerifier() *Verifier {
	return &Verifier{
		ArtistThreshold: DefaultArtistThreshold,
		AlbumThreshold:  DefaultAlbumThreshold,
		AlbumTypes:      DefaultAlbumTypes(),
	}
}

// Verify reports whether the candidate matches the query. The reason
// describes the first failed check and is empty on acceptance.
//
// Checks only apply to fields the candidate carries: a provider that
// reports no album type or release date is not rejected for it. A year
// check runs only when the query requested a year and the candidate
// reported a date.
func (v *Verifier) Verify(q providers.Query, c providers.Candidate) (bool, string) {
	if c.ImageURL == "" {
		return false, "candidate has no image url"
	}

	if c.Artist != "" {
		score := fuzzy.TokenSortRatio(Fold(q.Artist), Fold(c.Artist))
		if score < v.ArtistThreshold {
			return false, fmt.Sprintf("artist score %d below %d (%q vs %q)", score, v.ArtistThreshold, q.Artist, c.Artist)
		}
	}

	if c.Album != "" {
		score := fuzzy.TokenSortRatio(q.Album, c.Album)
		if score < v.AlbumThreshold {
			return false, fmt.Sprintf("album score %d below %d (%q vs %q)", score, v.AlbumThreshold, q.Album, c.Album)
		}
	}

	if c.AlbumType != "" && !v.typeAllowed(c.AlbumType) {
		return false, fmt.Sprintf("album type %q not accepted", c.AlbumType)
	}

	if q.Year != "" && c.ReleaseDate != "" && c.Year() != q.Year {
		return false, fmt.Sprintf("release year %s does not match requested %s", c.Year(), q.Year)
	}

	return true, ""
}

func (v *Verifier) typeAllowed(albumType string) bool {
	albumType = strings.ToLower(albumType)
	for _, t := range v.AlbumTypes {
		if t == albumType {
			return true
		}
	}
	return false
}

// Fold strips diacritics so "Beyoncé" and "Beyonce" compare as equal. The
// string is decomposed, combining marks are dropped, then it is recomposed.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

package providers

import (
	"context"
	"strings"
	"time"
)

const (
	// userAgent identifies the resolver to providers that require it
	// (MusicBrainz policy, Discogs).
	userAgent = "check-and-download-cover/1.0 (+https://github.com/dcschmid/check-and-download-cover)"

	// searchTimeout bounds every outbound provider call.
	searchTimeout = 10 * time.Second
)

// Query identifies the album a catalog record wants a cover for.
type Query struct {
	Artist string
	Album  string
	Year   string // optional, exact-match gate when set
}

// Candidate is an unverified cover-art result returned by a provider.
//
// Providers fill only the fields their API reports. Verification skips
// fields a candidate does not carry.
type Candidate struct {
	Provider    string // provider name, for logging and the journal
	ImageURL    string
	Artist      string
	Album       string
	AlbumType   string // album, ep, single, compilation, live, ...
	ReleaseDate string // "1979" or "1979-11-30"
}

// Year returns the leading year component of ReleaseDate, or "" when the
// provider reported no date.
func (c Candidate) Year() string {
	if c.ReleaseDate == "" {
		return ""
	}
	return strings.SplitN(c.ReleaseDate, "-", 2)[0]
}

// Provider is a single cover-art source in the fallback chain.
type Provider interface {
	// Name returns the provider name used in logs and the journal.
	Name() string

	// Enabled reports whether the provider has the credentials it needs.
	// The chain skips disabled providers.
	Enabled() bool

	// Search queries the provider for cover candidates for q. A (nil, nil)
	// return means the provider found nothing. A non-nil error means the
	// provider is unavailable right now and the chain should move on.
	Search(ctx context.Context, q Query) ([]Candidate, error)
}

// Verifier decides whether a candidate matches what was asked for.
// The canonical implementation lives in internal/match.
type Verifier interface {
	Verify(q Query, c Candidate) (ok bool, reason string)
}

// MusicBrainz release search cross-referenced with the Cover Art Archive,
// the keyless last resort of the chain.
//
// MusicBrainz asks clients to identify themselves and throttle:
// https://musicbrainz.org/doc/MusicBrainz_API/Rate_Limiting

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dcschmid/check-and-download-cover/internal/shared"
)

const (
	musicBrainzBaseURL         = "https://musicbrainz.org"
	musicBrainzReleaseEndpoint = "%s/ws/2/release"

	coverArtArchiveBaseURL  = "https://coverartarchive.org"
	coverArtArchiveEndpoint = "%s/release/%s/front-500"
)

// MusicBrainzProvider resolves covers by searching MusicBrainz releases
// and probing the Cover Art Archive for the release's front image. Always
// enabled.
type MusicBrainzProvider struct {
	client     *http.Client
	baseURL    string
	archiveURL string
	logger     *log.Logger
}

// NewMusicBrainzProvider creates the provider.
func NewMusicBrainzProvider(logger *log.Logger) *MusicBrainzProvider {
	return &MusicBrainzProvider{
		client:     http.DefaultClient,
		baseURL:    musicBrainzBaseURL,
		archiveURL: coverArtArchiveBaseURL,
		logger:     shared.WithLogger(logger, "provider", "musicbrainz"),
	}
}

func (p *MusicBrainzProvider) Name() string { return "musicbrainz" }

func (p *MusicBrainzProvider) Enabled() bool { return true }

// Search looks up the best release match and returns a candidate pointing
// at the archive's front-500 image. The image URL is only returned after a
// HEAD probe confirms the archive actually has a front cover, since
// MusicBrainz knows about far more releases than the archive holds art
// for.
func (p *MusicBrainzProvider) Search(ctx context.Context, q Query) ([]Candidate, error) {
	searchURL := fmt.Sprintf(musicBrainzReleaseEndpoint, p.baseURL)
	req, err := http.NewRequest(http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create musicbrainz request: %w", err)
	}

	query := req.URL.Query()
	query.Set("query", fmt.Sprintf("artist:%s AND release:%s", q.Artist, q.Album))
	query.Set("fmt", "json")
	query.Set("limit", "1")
	req.URL.RawQuery = query.Encode()
	req.Header.Set("User-Agent", userAgent)

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	req = req.WithContext(searchCtx)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: musicbrainz search: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: musicbrainz returned HTTP %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}

	var result mbSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding musicbrainz response: %v", shared.ErrProviderUnavailable, err)
	}

	if len(result.Releases) == 0 {
		return nil, nil
	}

	release := result.Releases[0]
	coverURL := fmt.Sprintf(coverArtArchiveEndpoint, p.archiveURL, release.ID)

	available, err := p.probeArchive(ctx, coverURL)
	if err != nil {
		return nil, err
	}
	if !available {
		p.logger.Debug("no front cover in archive", "release", release.ID, "artist", q.Artist, "album", q.Album)
		return nil, nil
	}

	cand := Candidate{
		Provider:    p.Name(),
		ImageURL:    coverURL,
		Album:       release.Title,
		AlbumType:   strings.ToLower(release.ReleaseGroup.PrimaryType),
		ReleaseDate: release.Date,
	}
	if len(release.ArtistCredit) > 0 {
		cand.Artist = release.ArtistCredit[0].Name
	}

	return []Candidate{cand}, nil
}

// probeArchive issues a HEAD request for the cover URL. Only a definitive
// 404 counts as missing art.
func (p *MusicBrainzProvider) probeArchive(ctx context.Context, coverURL string) (bool, error) {
	req, err := http.NewRequest(http.MethodHead, coverURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create archive probe: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: cover art archive probe: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	return resp.StatusCode != http.StatusNotFound, nil
}

// Structures used only to decode the MusicBrainz release search response.
type mbSearchResponse struct {
	Releases []mbRelease `json:"releases"`
}

type mbRelease struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Date         string           `json:"date"`
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
	ReleaseGroup mbReleaseGroup   `json:"release-group"`
}

type mbArtistCredit struct {
	Name string `json:"name"`
}

type mbReleaseGroup struct {
	PrimaryType string `json:"primary-type"`
}

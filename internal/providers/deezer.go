// Deezer cover lookup, the keyless secondary provider.

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/dcschmid/check-and-download-cover/internal/shared"
)

const (
	deezerBaseURL        = "https://api.deezer.com"
	deezerSearchEndpoint = "%s/search/album"
)

// DeezerProvider resolves covers through the Deezer album search. No
// credentials are required, so it is always enabled.
type DeezerProvider struct {
	client  *http.Client
	baseURL string
	logger  *log.Logger
}

// NewDeezerProvider creates the provider.
func NewDeezerProvider(logger *log.Logger) *DeezerProvider {
	return &DeezerProvider{
		client:  http.DefaultClient,
		baseURL: deezerBaseURL,
		logger:  shared.WithLogger(logger, "provider", "deezer"),
	}
}

func (p *DeezerProvider) Name() string { return "deezer" }

func (p *DeezerProvider) Enabled() bool { return true }

// Search queries the Deezer album search and returns the first hit as a
// candidate with its cover_big image.
func (p *DeezerProvider) Search(ctx context.Context, q Query) ([]Candidate, error) {
	searchURL := fmt.Sprintf(deezerSearchEndpoint, p.baseURL)
	req, err := http.NewRequest(http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create deezer request: %w", err)
	}

	query := req.URL.Query()
	query.Set("q", fmt.Sprintf("artist:'%s' album:'%s'", q.Artist, q.Album))
	req.URL.RawQuery = query.Encode()

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: deezer search: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: deezer returned HTTP %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}

	var result deezerSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding deezer response: %v", shared.ErrProviderUnavailable, err)
	}

	if len(result.Data) == 0 {
		return nil, nil
	}

	first := result.Data[0]
	cand := Candidate{
		Provider:    p.Name(),
		ImageURL:    first.CoverBig,
		Artist:      first.Artist.Name,
		Album:       first.Title,
		AlbumType:   first.RecordType,
		ReleaseDate: first.ReleaseDate,
	}

	return []Candidate{cand}, nil
}

// Structures used only to decode the Deezer search response. The search
// endpoint omits release_date, so the year gate does not apply to Deezer
// candidates.
type deezerSearchResponse struct {
	Data []deezerAlbum `json:"data"`
}

type deezerAlbum struct {
	Title       string       `json:"title"`
	RecordType  string       `json:"record_type"`
	ReleaseDate string       `json:"release_date"`
	CoverBig    string       `json:"cover_big"`
	Artist      deezerArtist `json:"artist"`
}

type deezerArtist struct {
	Name string `json:"name"`
}

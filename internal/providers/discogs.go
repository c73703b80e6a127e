// Discogs cover lookup via the community release database.
//
// Auth uses the personal-token header form documented at
// https://www.discogs.com/developers/#page:authentication

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
	discogsBaseURL        = "https://api.discogs.com"
	discogsSearchEndpoint = "%s/database/search"
)

// DiscogsProvider resolves covers through the Discogs database search. It
// needs a personal access token; without one it is disabled.
type DiscogsProvider struct {
	token   string
	client  *http.Client
	baseURL string
	logger  *log.Logger
}

// NewDiscogsProvider creates the provider. A missing token disables it
// without failing the run.
func NewDiscogsProvider(token string, logger *log.Logger) *DiscogsProvider {
	return &DiscogsProvider{
		token:   token,
		client:  http.DefaultClient,
		baseURL: discogsBaseURL,
		logger:  shared.WithLogger(logger, "provider", "discogs"),
	}
}

func (p *DiscogsProvider) Name() string { return "discogs" }

func (p *DiscogsProvider) Enabled() bool { return p.token != "" }

// Search queries the release database and returns the first result as a
// candidate. Discogs titles come as "Artist - Album", which is split for
// verification; the year arrives as a plain string.
func (p *DiscogsProvider) Search(ctx context.Context, q Query) ([]Candidate, error) {
	searchURL := fmt.Sprintf(discogsSearchEndpoint, p.baseURL)
	req, err := http.NewRequest(http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discogs request: %w", err)
	}

	query := req.URL.Query()
	query.Set("q", q.Album)
	query.Set("artist", q.Artist)
	query.Set("type", "release")
	req.URL.RawQuery = query.Encode()

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", fmt.Sprintf("Discogs token=%s", p.token))

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: discogs search: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: discogs returned HTTP %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}

	var result discogsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding discogs response: %v", shared.ErrProviderUnavailable, err)
	}

	if len(result.Results) == 0 {
		return nil, nil
	}

	first := result.Results[0]
	if first.CoverImage == "" {
		return nil, nil
	}

	cand := Candidate{
		Provider:    p.Name(),
		ImageURL:    first.CoverImage,
		ReleaseDate: first.Year,
	}
	cand.Artist, cand.Album = splitDiscogsTitle(first.Title)

	return []Candidate{cand}, nil
}

// splitDiscogsTitle breaks a "Artist - Album" release title into its
// parts. Titles without the separator are treated as a bare album name so
// the artist check is skipped rather than failed.
func splitDiscogsTitle(title string) (artist, album string) {
	parts := strings.SplitN(title, " - ", 2)
	if len(parts) < 2 {
		return "", title
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// Structures used only to decode the Discogs search response.
type discogsSearchResponse struct {
	Results []discogsResult `json:"results"`
}

type discogsResult struct {
	Title      string `json:"title"`
	Year       string `json:"year"`
	CoverImage string `json:"cover_image"`
}

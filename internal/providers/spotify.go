// Spotify cover lookup, the primary provider in the chain.
//
// Search response types based on https://developer.spotify.com/documentation/web-api/reference/search

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/dcschmid/check-and-download-cover/internal/shared"
)

const (
	spotifyTokenURL       = "https://accounts.spotify.com/api/token"
	spotifyBaseURL        = "https://api.spotify.com"
	spotifySearchEndpoint = "%s/v1/search"
)

// SpotifyProvider resolves covers through the Spotify album search using
// OAuth2 client credentials. The token is exchanged on first use; a failed
// exchange disables the provider for the rest of the run.
type SpotifyProvider struct {
	conf     *clientcredentials.Config
	client   *http.Client
	baseURL  string
	disabled bool
	logger   *log.Logger
}

// NewSpotifyProvider creates the provider. Missing credentials disable it
// without failing the run.
func NewSpotifyProvider(clientID, clientSecret string, logger *log.Logger) *SpotifyProvider {
	p := &SpotifyProvider{
		baseURL: spotifyBaseURL,
		logger:  shared.WithLogger(logger, "provider", "spotify"),
	}

	if clientID == "" || clientSecret == "" {
		p.disabled = true
		return p
	}

	p.conf = &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}
	return p
}

func (p *SpotifyProvider) Name() string { return "spotify" }

// Enabled reports whether credentials are present and the token exchange
// has not failed.
func (p *SpotifyProvider) Enabled() bool { return !p.disabled }

// Search queries the Spotify album search and returns every item as a
// candidate, using the largest cover image of each.
func (p *SpotifyProvider) Search(ctx context.Context, q Query) ([]Candidate, error) {
	if err := p.authenticate(ctx); err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf(spotifySearchEndpoint, p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create spotify request: %w", err)
	}

	query := req.URL.Query()
	query.Set("q", fmt.Sprintf("album:%s artist:%s", q.Album, q.Artist))
	query.Set("type", "album")
	req.URL.RawQuery = query.Encode()

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: spotify search: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: spotify returned HTTP %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}

	var result spotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding spotify response: %v", shared.ErrProviderUnavailable, err)
	}

	if len(result.Albums.Items) == 0 {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(result.Albums.Items))
	for _, item := range result.Albums.Items {
		cand := Candidate{
			Provider:    p.Name(),
			Album:       item.Name,
			AlbumType:   item.AlbumType,
			ReleaseDate: item.ReleaseDate,
		}
		if len(item.Artists) > 0 {
			cand.Artist = item.Artists[0].Name
		}
		if len(item.Images) > 0 {
			// Spotify orders images widest first.
			cand.ImageURL = item.Images[0].URL
		}
		candidates = append(candidates, cand)
	}

	return candidates, nil
}

// authenticate exchanges the client credentials for a token on first use.
func (p *SpotifyProvider) authenticate(ctx context.Context) error {
	if p.client != nil {
		return nil
	}

	src := p.conf.TokenSource(ctx)
	if _, err := src.Token(); err != nil {
		p.disabled = true
		p.logger.Error("token exchange failed, disabling provider", "error", err)
		return fmt.Errorf("%w: spotify token exchange: %v", shared.ErrAuthFailed, err)
	}

	p.client = oauth2.NewClient(ctx, src)
	return nil
}

// Structures used only to decode the Spotify search response, holding just
// the fields the resolver reads.
type spotifySearchResponse struct {
	Albums struct {
		Items []spotifyAlbum `json:"items"`
	} `json:"albums"`
}

type spotifyAlbum struct {
	Name        string          `json:"name"`
	AlbumType   string          `json:"album_type"`
	ReleaseDate string          `json:"release_date"`
	Artists     []spotifyArtist `json:"artists"`
	Images      []spotifyImage  `json:"images"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Last.fm cover lookup via album.getinfo.

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
	lastfmBaseURL  = "http://ws.audioscrobbler.com"
	lastfmEndpoint = "%s/2.0/"

	// lastfmImageSize is the preferred entry of the image list.
	lastfmImageSize = "extralarge"
)

// LastFMProvider resolves covers through the Last.fm album.getinfo call.
// It needs an API key; without one it is disabled.
//
// Last.fm reports neither an album type nor a release date, so candidates
// pass the type and year checks by omission.
type LastFMProvider struct {
	apiKey  string
	client  *http.Client
	baseURL string
	logger  *log.Logger
}

// NewLastFMProvider creates the provider. A missing API key disables it
// without failing the run.
func NewLastFMProvider(apiKey string, logger *log.Logger) *LastFMProvider {
	return &LastFMProvider{
		apiKey:  apiKey,
		client:  http.DefaultClient,
		baseURL: lastfmBaseURL,
		logger:  shared.WithLogger(logger, "provider", "lastfm"),
	}
}

func (p *LastFMProvider) Name() string { return "lastfm" }

func (p *LastFMProvider) Enabled() bool { return p.apiKey != "" }

// Search fetches album info and returns one candidate carrying the
// extralarge image. Last.fm answers unknown albums with HTTP 200 and an
// error payload, which maps to a plain miss.
func (p *LastFMProvider) Search(ctx context.Context, q Query) ([]Candidate, error) {
	infoURL := fmt.Sprintf(lastfmEndpoint, p.baseURL)
	req, err := http.NewRequest(http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create last.fm request: %w", err)
	}

	query := req.URL.Query()
	query.Set("method", "album.getinfo")
	query.Set("api_key", p.apiKey)
	query.Set("artist", q.Artist)
	query.Set("album", q.Album)
	query.Set("format", "json")
	req.URL.RawQuery = query.Encode()

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: last.fm request: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: last.fm returned HTTP %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}

	var result lastfmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding last.fm response: %v", shared.ErrProviderUnavailable, err)
	}

	if result.Album == nil {
		return nil, nil
	}

	var imageURL string
	for _, img := range result.Album.Images {
		if img.Size == lastfmImageSize && img.URL != "" {
			imageURL = img.URL
			break
		}
	}
	if imageURL == "" {
		return nil, nil
	}

	cand := Candidate{
		Provider: p.Name(),
		ImageURL: imageURL,
		Artist:   result.Album.Artist,
		Album:    result.Album.Name,
	}

	return []Candidate{cand}, nil
}

// Structures used only to decode the Last.fm album.getinfo response.
type lastfmResponse struct {
	Album *lastfmAlbum `json:"album"`
}

type lastfmAlbum struct {
	Name   string        `json:"name"`
	Artist string        `json:"artist"`
	Images []lastfmImage `json:"image"`
}

type lastfmImage struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcschmid/check-and-download-cover/internal/shared"
)

func TestDeezerProvider(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("always enabled", func(t *testing.T) {
		if !NewDeezerProvider(logger).Enabled() {
			t.Error("deezer needs no credentials and should always be enabled")
		}
	})

	t.Run("search returns the first hit", func(t *testing.T) {
		var searchedQuery string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search/album" {
				t.Errorf("unexpected path %s", r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
				return
			}
			searchedQuery = r.URL.Query().Get("q")

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"data":[
				{"title":"Nevermind","record_type":"album","cover_big":"https://img.example/nevermind.jpg",
				 "artist":{"name":"Nirvana"}},
				{"title":"Nevermind (Remastered)","record_type":"album","cover_big":"https://img.example/other.jpg",
				 "artist":{"name":"Nirvana"}}
			]}`)
		}))
		defer srv.Close()

		p := NewDeezerProvider(logger)
		p.baseURL = srv.URL

		candidates, err := p.Search(context.Background(), Query{Artist: "Nirvana", Album: "Nevermind"})
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}

		if len(candidates) != 1 {
			t.Fatalf("expected exactly the first hit, got %d candidates", len(candidates))
		}

		cand := candidates[0]
		if cand.Provider != "deezer" {
			t.Errorf("expected provider deezer, got %q", cand.Provider)
		}
		if cand.Artist != "Nirvana" || cand.Album != "Nevermind" {
			t.Errorf("unexpected candidate: %+v", cand)
		}
		if cand.ImageURL != "https://img.example/nevermind.jpg" {
			t.Errorf("expected cover_big image, got %q", cand.ImageURL)
		}
		if cand.ReleaseDate != "" {
			t.Errorf("search results carry no release date, got %q", cand.ReleaseDate)
		}

		if searchedQuery != `artist:'Nirvana' album:'Nevermind'` {
			t.Errorf("unexpected search query %q", searchedQuery)
		}
	})

	t.Run("empty result set is a miss", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"data":[]}`)
		}))
		defer srv.Close()

		p := NewDeezerProvider(logger)
		p.baseURL = srv.URL

		candidates, err := p.Search(context.Background(), Query{Artist: "Nobody", Album: "Nothing"})
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		if candidates != nil {
			t.Errorf("expected no candidates, got %+v", candidates)
		}
	})

	t.Run("server error is a provider failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		p := NewDeezerProvider(logger)
		p.baseURL = srv.URL

		_, err := p.Search(context.Background(), Query{Artist: "Nirvana", Album: "Nevermind"})
		if !errors.Is(err, shared.ErrProviderUnavailable) {
			t.Fatalf("expected ErrProviderUnavailable, got %v", err)
		}
	})
}

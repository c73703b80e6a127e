package providers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/dcschmid/check-and-download-cover/internal/shared"
)

// TitleVariants lists the re-release suffixes appended to the base album
// title when a search comes up empty. Providers frequently list only a
// "Deluxe" or "Remastered" edition of older albums.
var TitleVariants = []string{"Deluxe", "Remastered", "Anniversary", "Special Edition", "Expanded Edition"}

// Variants returns the search titles tried for an album: the base title
// followed by the base with each re-release suffix.
func Variants(album string) []string {
	out := make([]string, 0, len(TitleVariants)+1)
	out = append(out, album)
	for _, suffix := range TitleVariants {
		out = append(out, album+" "+suffix)
	}
	return out
}

// Chain tries an ordered list of providers until one yields a verified
// cover candidate.
type Chain struct {
	providers []Provider
	verifier  Verifier
	throttle  *Throttle
	logger    *log.Logger
}

// NewChain assembles a Chain. Provider order is priority order.
func NewChain(provs []Provider, verifier Verifier, throttle *Throttle, logger *log.Logger) *Chain {
	return &Chain{
		providers: provs,
		verifier:  verifier,
		throttle:  throttle,
		logger:    logger,
	}
}

// Resolve walks the chain for q and returns the first verified candidate.
// Disabled providers are skipped, failing providers are logged and
// skipped. When every provider comes up empty it returns
// [shared.ErrExhausted] and the caller assigns the placeholder.
func (ch *Chain) Resolve(ctx context.Context, q Query) (*Candidate, error) {
	for _, p := range ch.providers {
		if !p.Enabled() {
			continue
		}

		cand, err := ch.resolveProvider(ctx, p, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ch.logger.Warn("provider failed",
				"provider", p.Name(), "artist", q.Artist, "album", q.Album, "error", err)
			continue
		}
		if cand != nil {
			return cand, nil
		}

		ch.logger.Debug("no verified match",
			"provider", p.Name(), "artist", q.Artist, "album", q.Album)
	}

	return nil, fmt.Errorf("%w: no cover for %q by %q", shared.ErrExhausted, q.Album, q.Artist)
}

// resolveProvider tries every title variant against a single provider.
// Candidates are always verified against the base query, not the variant,
// so a "Deluxe" search cannot loosen the album comparison. An error aborts
// the provider's remaining variants.
func (ch *Chain) resolveProvider(ctx context.Context, p Provider, q Query) (*Candidate, error) {
	for _, album := range Variants(q.Album) {
		vq := q
		vq.Album = album

		if err := ch.throttle.Wait(ctx); err != nil {
			return nil, err
		}

		candidates, err := p.Search(ctx, vq)
		if err != nil {
			return nil, err
		}

		for _, cand := range candidates {
			ok, reason := ch.verifier.Verify(q, cand)
			if !ok {
				ch.logger.Debug("candidate rejected",
					"provider", p.Name(), "artist", q.Artist, "album", q.Album, "reason", reason)
				continue
			}

			ch.logger.Info("verified cover found",
				"provider", p.Name(), "artist", q.Artist, "album", q.Album, "url", cand.ImageURL)
			found := cand
			return &found, nil
		}
	}

	return nil, nil
}

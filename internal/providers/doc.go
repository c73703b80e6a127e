// Package providers implements the cover-art lookup chain.
//
// # Provider Interface
//
// Every source implements [Provider]: a name for logs, an Enabled gate
// driven by credential presence, and a Search that returns zero or more
// [Candidate] values. A (nil, nil) Search result means the provider found
// nothing for the query.
//
// # The Chain
//
// [Chain.Resolve] walks the providers in strict priority order:
//
//  1. Spotify (OAuth2 client credentials)
//  2. Deezer (keyless)
//  3. Last.fm (API key)
//  4. Discogs (personal access token)
//  5. MusicBrainz with a Cover Art Archive availability probe (keyless)
//
// For each provider it tries the base album title and then the common
// re-release variants ("Deluxe", "Remastered", ...), throttling before
// every outbound search. Candidates are checked by a [Verifier] and the
// first verified one wins, short-circuiting all remaining variants and
// providers.
//
// # Failure Semantics
//
// A provider error counts as a miss: the chain logs it and moves to the
// next provider. A failed Spotify token exchange disables the provider for
// the rest of the run. Only when every provider comes up empty does
// Resolve return [shared.ErrExhausted], and the caller falls back to the
// placeholder image.
package providers

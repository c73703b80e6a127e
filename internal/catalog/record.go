package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Catalog keys the resolver owns. Everything else rides along in Extra.
const (
	keyArtist   = "artist"
	keyAlbum    = "album"
	keyYear     = "year"
	keyCoverSrc = "coverSrc"
)

// AlbumRecord is a single album entry in a catalog file.
//
// coverSrc is the only field the resolver ever writes. Fields it does not
// own are preserved in Extra and written back verbatim on save.
type AlbumRecord struct {
	Artist   string
	Album    string
	Year     string
	CoverSrc string

	// Extra holds catalog fields the resolver does not own.
	Extra map[string]json.RawMessage

	// yearRaw preserves the original encoding of the year field, which
	// some catalogs store as a bare number.
	yearRaw json.RawMessage
}

// Valid reports whether the record carries the two required keys.
// Invalid records are logged and skipped, never fatal.
func (r AlbumRecord) Valid() bool {
	return strings.TrimSpace(r.Artist) != "" && strings.TrimSpace(r.Album) != ""
}

// UnmarshalJSON splits a record object into the owned fields and Extra.
func (r *AlbumRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	for key, raw := range fields {
		var err error
		switch key {
		case keyArtist:
			err = json.Unmarshal(raw, &r.Artist)
		case keyAlbum:
			err = json.Unmarshal(raw, &r.Album)
		case keyCoverSrc:
			err = json.Unmarshal(raw, &r.CoverSrc)
		case keyYear:
			r.yearRaw = raw
			r.Year = yearString(raw)
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]json.RawMessage)
			}
			r.Extra[key] = raw
		}
		if err != nil {
			return fmt.Errorf("record field %q: %w", key, err)
		}
	}

	return nil
}

// MarshalJSON writes the owned keys in a fixed order followed by the
// remaining fields sorted by name, so saved catalogs diff cleanly.
func (r AlbumRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField(&buf, keyArtist, marshalString(r.Artist))
	writeField(&buf, keyAlbum, marshalString(r.Album))

	switch {
	case r.yearRaw != nil:
		writeField(&buf, keyYear, r.yearRaw)
	case r.Year != "":
		writeField(&buf, keyYear, marshalString(r.Year))
	}

	// An unresolved record stays without a coverSrc key.
	if r.CoverSrc != "" {
		writeField(&buf, keyCoverSrc, marshalString(r.CoverSrc))
	}

	keys := make([]string, 0, len(r.Extra))
	for key := range r.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		writeField(&buf, key, r.Extra[key])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, raw json.RawMessage) {
	if buf.Len() > 1 {
		buf.WriteByte(',')
	}
	buf.Write(marshalString(key))
	buf.WriteByte(':')
	buf.Write(raw)
}

// marshalString encodes a plain string, which cannot fail.
func marshalString(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}

// yearString normalizes a raw year value to its string form, accepting
// both "1979" and 1979.
func yearString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

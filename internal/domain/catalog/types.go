// Package catalog provides the album catalog model and the load-once store.
package catalog

import "strings"

// Track is a single track on an album.
type Track struct {
	Title  string `json:"title"`
	Track  int    `json:"track"`
	Length string `json:"length"` // "MM:SS"
}

// Album is one catalog entry as produced by the offline cataloging tool.
// The artist/album pair is not unique across categories; personalization
// identity is Key(artist, album), never a synthetic id.
type Album struct {
	Album    string  `json:"album"`
	Artist   string  `json:"artist"`
	Year     int     `json:"year"`
	Category string  `json:"category"`
	Genre    string  `json:"genre"` // comma-separated tags
	Cover    string  `json:"cover"`
	Country  string  `json:"country,omitempty"` // ISO alpha-2, optional
	Tracks   []Track `json:"tracks"`
}

// Genres splits the comma-separated genre field, trimming whitespace and
// discarding empty tags.
func (a Album) Genres() []string {
	parts := strings.Split(a.Genre, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// HasGenre reports whether the album carries the given genre tag exactly
// (tags are compared after trimming, case-sensitively).
func (a Album) HasGenre(genre string) bool {
	for _, g := range a.Genres() {
		if g == genre {
			return true
		}
	}
	return false
}

// Key derives the case-insensitive personalization identity shared by the
// hearts, reveals, NSFW and country-fallback tables.
func Key(artist, album string) string {
	return strings.ToLower(artist) + "::" + strings.ToLower(album)
}

// KeyedEntry is an external lookup-table row keyed by artist/album, used for
// the NSFW list and the country-fallback list.
type KeyedEntry struct {
	Artist  string `json:"artist"`
	Album   string `json:"album"`
	Country string `json:"country,omitempty"`
}

// Package catalog defines the remote music catalog the resolver talks to.
package catalog

import (
	"context"
	"strings"
)

// ArtistSeparator joins multiple artist names into one display string.
const ArtistSeparator = " & "

// Candidate is one search hit, in the order the catalog returned it.
type Candidate struct {
	ID      string
	Name    string
	Artists []string
}

// JoinedArtists returns the candidate's artists joined with ArtistSeparator.
func (c Candidate) JoinedArtists() string {
	return strings.Join(c.Artists, ArtistSeparator)
}

// Detail is a song's display metadata. Artists is already joined.
type Detail struct {
	Name    string
	Artists string
}

// Lyrics holds the original and translated LRC texts, either possibly empty.
type Lyrics struct {
	LRC    string
	TLyric string
}

// DetailFetcher looks up song metadata by ID.
type DetailFetcher interface {
	Detail(ctx context.Context, id string) (Detail, error)
}

// LyricFetcher downloads original and translated lyrics by song ID.
type LyricFetcher interface {
	Lyrics(ctx context.Context, id string) (Lyrics, error)
}

// Searcher runs a keyword search. artist may be empty. Zero hits is not an error.
type Searcher interface {
	Search(ctx context.Context, name, artist string, limit int) ([]Candidate, error)
}

// Catalog is the full set of operations the pipeline needs.
type Catalog interface {
	DetailFetcher
	LyricFetcher
	Searcher
}

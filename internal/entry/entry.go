// Package entry classifies raw input lines into song IDs or search queries.
package entry

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind identifies what a raw input line refers to.
type Kind int

const (
	Empty Kind = iota
	ExplicitID
	Query
	Unrecognized
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case ExplicitID:
		return "id"
	case Query:
		return "query"
	case Unrecognized:
		return "unrecognized"
	}
	return "unknown"
}

// SearchQuery is a name/artist pair derived from an entry that is not an ID or URL.
// Artist is empty when the entry carried no artist.
type SearchQuery struct {
	Name   string
	Artist string
}

// HasArtist reports whether the query names an artist.
func (q SearchQuery) HasArtist() bool {
	return q.Artist != ""
}

// Entry is one classified input line. ID is set for ExplicitID, Query for Query.
type Entry struct {
	Raw   string
	Kind  Kind
	ID    string
	Query SearchQuery
}

var (
	idInURL = regexp.MustCompile(`[?&]id=(\d+)`)
	// Hyphen, en dash and em dash, with optional surrounding whitespace.
	dashSplit = regexp.MustCompile(`\s*[-–—]\s*`)
)

// Classify decides whether line is an explicit song ID, a URL carrying an id=
// parameter, or a "Title - Artist" / "Title" query. ID and URL detection run
// before query parsing so that IDs and URLs are never split on a dash.
func Classify(line string) Entry {
	raw := line
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{Raw: raw, Kind: Empty}
	}
	if m := idInURL.FindStringSubmatch(line); m != nil {
		return Entry{Raw: raw, Kind: ExplicitID, ID: m[1]}
	}
	if isDigits(line) {
		return Entry{Raw: raw, Kind: ExplicitID, ID: line}
	}
	if parts := dashSplit.Split(line, 2); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return Entry{Raw: raw, Kind: Query, Query: SearchQuery{
			Name:   strings.TrimSpace(parts[0]),
			Artist: strings.TrimSpace(parts[1]),
		}}
	}
	if !strings.Contains(strings.ToLower(line), "http") {
		return Entry{Raw: raw, Kind: Query, Query: SearchQuery{Name: line}}
	}
	return Entry{Raw: raw, Kind: Unrecognized}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

package resolver

import (
	"math"
	"regexp"
	"strings"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/entry"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/text"
)

// Weights are the score adjustments applied on top of name similarity (0..100).
type Weights struct {
	ArtistContained  float64 `yaml:"artist_contained"`
	ArtistSimilar    float64 `yaml:"artist_similar"`
	ExactName        float64 `yaml:"exact_name"`
	ArtistMismatch   float64 `yaml:"artist_mismatch"` // applied only when fuzzy matching is off
	SimilarThreshold float64 `yaml:"similar_threshold"`
}

// DefaultWeights returns the stock scoring policy.
func DefaultWeights() Weights {
	return Weights{
		ArtistContained:  20,
		ArtistSimilar:    10,
		ExactName:        5,
		ArtistMismatch:   -10,
		SimilarThreshold: 0.7,
	}
}

// artistSplit breaks a joined artist string into individual names.
var artistSplit = regexp.MustCompile(`[,&/、和+ ]+`)

// Scorer ranks search candidates against a query.
type Scorer struct {
	Weights Weights
	Fuzzy   bool
}

// Score rates c against q. Higher is better; the value is only meaningful
// relative to other candidates for the same query.
func (s Scorer) Score(q entry.SearchQuery, c catalog.Candidate) float64 {
	w := s.Weights
	score := text.Similarity(q.Name, c.Name) * 100
	if q.HasArtist() {
		joined := c.JoinedArtists()
		switch {
		case strings.Contains(text.Normalize(joined), text.Normalize(q.Artist)):
			score += w.ArtistContained
		case s.anyArtistSimilar(q.Artist, joined):
			score += w.ArtistSimilar
		case !s.Fuzzy:
			score += w.ArtistMismatch
		}
	}
	if text.Normalize(q.Name) == text.Normalize(c.Name) {
		score += w.ExactName
	}
	return score
}

func (s Scorer) anyArtistSimilar(artist, joined string) bool {
	for _, part := range artistSplit.Split(joined, -1) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if text.Similarity(artist, part) >= s.Weights.SimilarThreshold {
			return true
		}
	}
	return false
}

// Best returns the highest-scoring candidate, keeping the earliest one on ties.
// It reports false only when cands is empty.
func (s Scorer) Best(q entry.SearchQuery, cands []catalog.Candidate) (catalog.Candidate, bool) {
	var best catalog.Candidate
	bestScore := math.Inf(-1)
	found := false
	for _, c := range cands {
		if sc := s.Score(q, c); sc > bestScore {
			best, bestScore, found = c, sc, true
		}
	}
	return best, found
}

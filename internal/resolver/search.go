package resolver

import (
	"context"
	"fmt"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/entry"
	lerrors "github.com/lthero-big/163MusicLyricsDownloader/internal/errors"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/text"
)

// SongResolver turns a name/artist query into a catalog song.
type SongResolver interface {
	Resolve(ctx context.Context, q entry.SearchQuery) (catalog.Candidate, error)
}

// CacheKey identifies a search by its normalized query and the settings that
// influence which candidate wins.
type CacheKey struct {
	Name    string
	Artist  string
	Fuzzy   bool
	Limit   int
	Weights Weights
}

func (k CacheKey) String() string {
	fuzzy := 0
	if k.Fuzzy {
		fuzzy = 1
	}
	w := k.Weights
	return fmt.Sprintf("%s|%s|fuzzy=%d|limit=%d|w=%g,%g,%g,%g,%g",
		text.Normalize(k.Name), text.Normalize(k.Artist), fuzzy, k.Limit,
		w.ArtistContained, w.ArtistSimilar, w.ExactName, w.ArtistMismatch, w.SimilarThreshold)
}

// Cache remembers earlier successful resolutions.
type Cache interface {
	LookupResolution(ctx context.Context, key CacheKey) (catalog.Candidate, bool, error)
	SaveResolution(ctx context.Context, key CacheKey, c catalog.Candidate) error
}

// Logger receives cache diagnostics.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// SearchResolver resolves queries through a catalog search and the Scorer.
type SearchResolver struct {
	Searcher catalog.Searcher
	Scorer   Scorer
	Limit    int
	Cache    Cache  // optional
	Logger   Logger // optional
}

var _ SongResolver = (*SearchResolver)(nil)

// Resolve searches for q and returns the best-scoring candidate. A failed
// search, an empty result and a winner without an ID all yield a
// *errors.ResolveError of type ErrNoCandidate.
func (r *SearchResolver) Resolve(ctx context.Context, q entry.SearchQuery) (catalog.Candidate, error) {
	raw := q.Name
	if q.HasArtist() {
		raw += " - " + q.Artist
	}
	key := CacheKey{Name: q.Name, Artist: q.Artist, Fuzzy: r.Scorer.Fuzzy, Limit: r.Limit, Weights: r.Scorer.Weights}

	if r.Cache != nil {
		c, ok, err := r.Cache.LookupResolution(ctx, key)
		switch {
		case err != nil:
			r.warnf("resolution cache lookup for %q: %v", raw, err)
		case ok && c.ID != "":
			r.debugf("cache hit for %q: %s", raw, c.ID)
			return c, nil
		}
	}

	cands, err := r.Searcher.Search(ctx, q.Name, q.Artist, r.Limit)
	if err != nil {
		return catalog.Candidate{}, &lerrors.ResolveError{Type: lerrors.ErrNoCandidate, Entry: raw, Cause: err}
	}
	best, ok := r.Scorer.Best(q, cands)
	if !ok || best.ID == "" {
		return catalog.Candidate{}, &lerrors.ResolveError{Type: lerrors.ErrNoCandidate, Entry: raw}
	}

	if r.Cache != nil {
		if err := r.Cache.SaveResolution(ctx, key, best); err != nil {
			r.warnf("resolution cache save for %q: %v", raw, err)
		}
	}
	return best, nil
}

func (r *SearchResolver) debugf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Debugf(format, args...)
	}
}

func (r *SearchResolver) warnf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Warnf(format, args...)
	}
}

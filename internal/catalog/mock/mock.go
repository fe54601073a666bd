package mock

import (
	"context"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
)

// Catalog is a mock that returns configurable results (for resolver and pipeline tests without HTTP).
type Catalog struct {
	DetailFunc func(ctx context.Context, id string) (catalog.Detail, error)
	LyricsFunc func(ctx context.Context, id string) (catalog.Lyrics, error)
	SearchFunc func(ctx context.Context, name, artist string, limit int) ([]catalog.Candidate, error)

	// Calls records every invocation as "op:arg" in order.
	Calls []string
}

// Detail calls DetailFunc if set, else returns an empty detail.
func (m *Catalog) Detail(ctx context.Context, id string) (catalog.Detail, error) {
	m.Calls = append(m.Calls, "detail:"+id)
	if m.DetailFunc != nil {
		return m.DetailFunc(ctx, id)
	}
	return catalog.Detail{}, nil
}

// Lyrics calls LyricsFunc if set, else returns empty lyrics.
func (m *Catalog) Lyrics(ctx context.Context, id string) (catalog.Lyrics, error) {
	m.Calls = append(m.Calls, "lyrics:"+id)
	if m.LyricsFunc != nil {
		return m.LyricsFunc(ctx, id)
	}
	return catalog.Lyrics{}, nil
}

// Search calls SearchFunc if set, else returns no candidates.
func (m *Catalog) Search(ctx context.Context, name, artist string, limit int) ([]catalog.Candidate, error) {
	m.Calls = append(m.Calls, "search:"+name)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, name, artist, limit)
	}
	return nil, nil
}

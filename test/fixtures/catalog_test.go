package fixtures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog/netease"
)

func TestStubCatalog_WithClient(t *testing.T) {
	stub := NewStubCatalog(t,
		Song{ID: "999", Name: "Song", Artists: []string{"Artist"}, LRC: "[00:01.00]la", TLyric: "[00:01.00]啦"},
		Song{ID: "1000", Name: "Song Two", Artists: []string{"Other", "Guest"}},
	)
	c := netease.NewClient(netease.Options{BaseURL: stub.URL(), Headers: netease.DefaultHeaders()})
	ctx := context.Background()

	d, err := c.Detail(ctx, "1000")
	require.NoError(t, err)
	require.Equal(t, catalog.Detail{Name: "Song Two", Artists: "Other & Guest"}, d)

	l, err := c.Lyrics(ctx, "999")
	require.NoError(t, err)
	require.Equal(t, catalog.Lyrics{LRC: "[00:01.00]la", TLyric: "[00:01.00]啦"}, l)

	l, err = c.Lyrics(ctx, "1000")
	require.NoError(t, err)
	require.Equal(t, catalog.Lyrics{}, l)

	cands, err := c.Search(ctx, "Song Two", "Other", 10)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	require.Equal(t, "999", cands[0].ID)
	require.Equal(t, "1000", cands[1].ID)

	cands, err = c.Search(ctx, "Nothing", "", 10)
	require.NoError(t, err)
	require.Empty(t, cands)

	require.Equal(t, 2, stub.Hits("/api/search/pc"))
}

func TestStubCatalog_FailNext(t *testing.T) {
	stub := NewStubCatalog(t, Song{ID: "1", Name: "One"})
	stub.FailNext("/api/song/detail/", 1)
	c := netease.NewClient(netease.Options{BaseURL: stub.URL(), Retries: 1})

	d, err := c.Detail(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "One", d.Name)
	require.Equal(t, 2, stub.Hits("/api/song/detail/"))
}

package netease

import (
	"encoding/json"
	"strings"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
)

// Missing fields decode to zero values: no songs, no artists, empty lyric text.

type detailResponse struct {
	Songs []song `json:"songs"`
}

type searchResponse struct {
	Result *searchResult `json:"result"`
}

type searchResult struct {
	Songs []*song `json:"songs"`
}

type song struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	Artists []*artist   `json:"artists"`
}

type artist struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

type lyricResponse struct {
	LRC    *lyricBlock `json:"lrc"`
	TLyric *lyricBlock `json:"tlyric"`
}

type lyricBlock struct {
	Lyric string `json:"lyric"`
}

func (b *lyricBlock) text() string {
	if b == nil {
		return ""
	}
	return b.Lyric
}

func artistNames(as []*artist) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		if a == nil {
			continue
		}
		out = append(out, a.Name)
	}
	return out
}

func joinArtists(as []*artist) string {
	return strings.Join(artistNames(as), catalog.ArtistSeparator)
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog/mock"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/data/sqlite"
	lerrors "github.com/lthero-big/163MusicLyricsDownloader/internal/errors"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/logger"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/lrc"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/output"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/resolver"
)

func stubCatalog() *mock.Catalog {
	return &mock.Catalog{
		DetailFunc: func(_ context.Context, id string) (catalog.Detail, error) {
			switch id {
			case "123":
				return catalog.Detail{Name: "Hello", Artists: "Adele"}, nil
			case "999":
				return catalog.Detail{Name: "Song", Artists: "Artist"}, nil
			}
			return catalog.Detail{}, &lerrors.FetchError{Op: "detail", SongID: id, Attempts: 3}
		},
		LyricsFunc: func(_ context.Context, id string) (catalog.Lyrics, error) {
			if id == "123" {
				return catalog.Lyrics{LRC: "[00:01.00]Hello\n[00:02.00]World", TLyric: "[00:01.40]你好"}, nil
			}
			return catalog.Lyrics{}, nil
		},
		SearchFunc: func(_ context.Context, name, artist string, _ int) ([]catalog.Candidate, error) {
			if name == "Song" && artist == "Artist" {
				return []catalog.Candidate{{ID: "999", Name: "Song", Artists: []string{"Artist"}}}, nil
			}
			return nil, nil
		},
	}
}

type testRun struct {
	p      *Pipeline
	cat    *mock.Catalog
	out    *bytes.Buffer
	sleeps int
}

func newTestPipeline(t *testing.T) *testRun {
	t.Helper()
	cat := stubCatalog()
	tr := &testRun{cat: cat, out: &bytes.Buffer{}}
	tr.p = &Pipeline{
		Details:   cat,
		Lyrics:    cat,
		Resolver:  &resolver.SearchResolver{Searcher: cat, Scorer: resolver.Scorer{Weights: resolver.DefaultWeights(), Fuzzy: true}, Limit: 10},
		OutDir:    filepath.Join(t.TempDir(), "lyrics"),
		Sleep:     600 * time.Millisecond,
		Tolerance: lrc.DefaultTolerance,
		Logger:    logger.Discard(),
		Out:       tr.out,
		sleep: func(ctx context.Context, d time.Duration) error {
			tr.sleeps++
			return ctx.Err()
		},
	}
	return tr
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(b, []byte("\xef\xbb\xbf")), "missing BOM in %s", path)
	rows, err := csv.NewReader(bytes.NewReader(b[3:])).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRun_EndToEnd(t *testing.T) {
	tr := newTestPipeline(t)
	res, err := tr.p.Run(context.Background(), []string{"123", "Song - Artist", "not a real query???"})
	require.NoError(t, err)

	summary := readCSV(t, res.SummaryPath)
	require.Len(t, summary, 3)
	require.Equal(t, []string{"song_id", "name", "artists", "has_lrc", "has_tlyric", "folder"}, summary[0])
	require.Equal(t, []string{"123", "Hello", "Adele", "1", "1", filepath.Join(tr.p.OutDir, "123 - Hello")}, summary[1])
	require.Equal(t, []string{"999", "Song", "Artist", "0", "0", filepath.Join(tr.p.OutDir, "999 - Song")}, summary[2])

	resolved := readCSV(t, res.ResolvedPath)
	require.Len(t, resolved, 4)
	require.Equal(t, []string{"123", "123", "Hello", "Adele", "id_or_url"}, resolved[1])
	require.Equal(t, []string{"Song - Artist", "999", "Song", "Artist", "by_search:Song | Artist"}, resolved[2])
	require.Equal(t, []string{"not a real query???", "", "", "", "unresolved"}, resolved[3])

	merged, err := os.ReadFile(filepath.Join(tr.p.OutDir, "123 - Hello", output.MergedFile))
	require.NoError(t, err)
	require.Equal(t, "[00:01.000]Hello / 你好\n[00:02.000]World", string(merged))
	require.FileExists(t, filepath.Join(tr.p.OutDir, "123 - Hello", output.RawFile))
	require.FileExists(t, filepath.Join(tr.p.OutDir, "123 - Hello", output.TransFile))

	// No lyrics: the folder exists but holds no files.
	require.DirExists(t, filepath.Join(tr.p.OutDir, "999 - Song"))
	require.NoFileExists(t, filepath.Join(tr.p.OutDir, "999 - Song", output.MergedFile))

	require.Equal(t, 3, tr.sleeps)
	require.Equal(t, 2, res.Resolved())
	require.Len(t, res.Songs, 2)

	out := tr.out.String()
	require.Contains(t, out, "[1/3] Resolving: 123\n")
	require.Contains(t, out, "[3/3] Resolving: not a real query???\n")
	require.Contains(t, out, "  !! Unable to resolve entry: not a real query???\n")
}

func TestRun_UnrecognizedEntry(t *testing.T) {
	tr := newTestPipeline(t)
	res, err := tr.p.Run(context.Background(), []string{"https://music.163.com/playlist"})
	require.NoError(t, err)
	require.Equal(t, []output.ResolutionRecord{{Original: "https://music.163.com/playlist", Note: output.NoteUnrecognized}}, res.Resolutions)
	require.Empty(t, tr.cat.Calls)
	require.Equal(t, 1, tr.sleeps)
}

func TestRun_FetchFailureDegrades(t *testing.T) {
	tr := newTestPipeline(t)
	res, err := tr.p.Run(context.Background(), []string{"555"})
	require.NoError(t, err)
	require.Equal(t, []output.SongRecord{{ID: "555", Folder: filepath.Join(tr.p.OutDir, "555 - unknown")}}, res.Songs)
	require.Equal(t, output.NoteIDOrURL, res.Resolutions[0].Note)
	require.Equal(t, []string{"detail:555", "lyrics:555"}, tr.cat.Calls)
}

func TestRun_MergePanicKeepsRawFiles(t *testing.T) {
	tr := newTestPipeline(t)
	tr.cat.LyricsFunc = func(context.Context, string) (catalog.Lyrics, error) {
		return catalog.Lyrics{LRC: "[00:01.00]x"}, nil
	}
	tr.p.Tolerance = 0
	tr.p.Out = panicOnMergedWriter{tr.out}

	res, err := tr.p.Run(context.Background(), []string{"123"})
	require.NoError(t, err)
	require.Len(t, res.Songs, 1)
	require.True(t, res.Songs[0].HasLRC)
	require.FileExists(t, filepath.Join(tr.p.OutDir, "123 - Hello", output.RawFile))
	require.Contains(t, tr.out.String(), "  Merge warning for 123: boom\n")
}

// panicOnMergedWriter panics when the merge progress line is printed, which
// happens inside the recovered merge stage.
type panicOnMergedWriter struct{ buf *bytes.Buffer }

func (w panicOnMergedWriter) Write(p []byte) (int, error) {
	if strings.Contains(string(p), "merged") {
		panic("boom")
	}
	return w.buf.Write(p)
}

func TestRun_CancelledBetweenEntries(t *testing.T) {
	tr := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	tr.p.sleep = func(context.Context, time.Duration) error {
		cancel()
		return nil
	}
	res, err := tr.p.Run(ctx, []string{"123", "Song - Artist"})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Resolutions, 1)

	// Audit files were closed and hold the processed row.
	require.Len(t, readCSV(t, res.ResolvedPath), 2)
}

func TestRun_CancelledDuringFetch(t *testing.T) {
	tr := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	tr.cat.DetailFunc = func(ctx context.Context, id string) (catalog.Detail, error) {
		cancel()
		return catalog.Detail{}, &lerrors.FetchError{Op: "detail", SongID: id, Attempts: 1, Cause: ctx.Err()}
	}

	res, err := tr.p.Run(ctx, []string{"123"})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, res.Songs)
	require.Empty(t, res.Resolutions)
	require.Zero(t, tr.sleeps)

	_, err = os.Stat(filepath.Join(tr.p.OutDir, "123 - unknown"))
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Len(t, readCSV(t, res.SummaryPath), 1)
	require.Len(t, readCSV(t, res.ResolvedPath), 1)
}

func TestRun_CancelledDuringSearch(t *testing.T) {
	tr := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	tr.cat.SearchFunc = func(ctx context.Context, _, _ string, _ int) ([]catalog.Candidate, error) {
		cancel()
		return nil, ctx.Err()
	}

	res, err := tr.p.Run(ctx, []string{"Song - Artist"})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, res.Resolutions)
	require.NotContains(t, tr.out.String(), "Unable to resolve")
	require.Len(t, readCSV(t, res.ResolvedPath), 1)
}

func TestRun_BadOutDir(t *testing.T) {
	tr := newTestPipeline(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	tr.p.OutDir = filepath.Join(file, "sub")
	_, err := tr.p.Run(context.Background(), []string{"123"})
	require.Error(t, err)
	require.Empty(t, tr.cat.Calls)
}

func TestRun_RecordsHistory(t *testing.T) {
	tr := newTestPipeline(t)
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()
	tr.p.History = db

	_, err = tr.p.Run(context.Background(), []string{"123", "Song - Artist", "nope"})
	require.NoError(t, err)

	s, err := db.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, s.Runs)
	require.Equal(t, 2, s.Songs)
	require.Equal(t, sqlite.RunCounts{Entries: 3, Resolved: 2, Unresolved: 1}, s.LastRun.RunCounts)
}

type failingHistory struct{}

func (failingHistory) BeginRun(context.Context) (string, error) { return "", errors.New("read-only") }
func (failingHistory) RecordSong(context.Context, string, sqlite.Song) error {
	panic("not reached")
}
func (failingHistory) FinishRun(context.Context, string, sqlite.RunCounts) error {
	panic("not reached")
}

func TestRun_HistoryFailureIsNotFatal(t *testing.T) {
	tr := newTestPipeline(t)
	tr.p.History = failingHistory{}
	res, err := tr.p.Run(context.Background(), []string{"123"})
	require.NoError(t, err)
	require.Len(t, res.Songs, 1)
}

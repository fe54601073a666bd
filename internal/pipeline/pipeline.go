// Package pipeline resolves a batch of entries to songs and writes their lyrics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/data/sqlite"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/entry"
	lerrors "github.com/lthero-big/163MusicLyricsDownloader/internal/errors"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/lrc"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/output"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/resolver"
)

// Logger receives diagnostics; progress lines go to Pipeline.Out instead.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// History persists run and song records. *sqlite.DB implements it.
type History interface {
	BeginRun(ctx context.Context) (string, error)
	RecordSong(ctx context.Context, runID string, s sqlite.Song) error
	FinishRun(ctx context.Context, runID string, n sqlite.RunCounts) error
}

// Pipeline processes entries one at a time: classify, resolve, fetch, merge, write.
type Pipeline struct {
	Details  catalog.DetailFetcher
	Lyrics   catalog.LyricFetcher
	Resolver resolver.SongResolver

	OutDir    string
	Sleep     time.Duration // pause after every entry
	Tolerance int           // merge tolerance in ms

	History History   // optional
	Logger  Logger    // optional
	Out     io.Writer // progress output; os.Stdout when nil

	sleep func(ctx context.Context, d time.Duration) error
}

// Result is what a run produced.
type Result struct {
	SummaryPath  string
	ResolvedPath string
	Resolutions  []output.ResolutionRecord
	Songs        []output.SongRecord
}

// Resolved counts entries that were mapped to a song.
func (r *Result) Resolved() int {
	n := 0
	for _, rec := range r.Resolutions {
		if rec.Resolved() {
			n++
		}
	}
	return n
}

var (
	warnColor = color.New(color.FgRed)
	okColor   = color.New(color.FgGreen)
)

// Run processes entries in order. It returns an error before touching any entry
// when the audit files cannot be opened, and stops early when ctx is cancelled
// or a song folder cannot be written; rows recorded so far stay on disk.
func (p *Pipeline) Run(ctx context.Context, entries []string) (*Result, error) {
	audit, err := output.OpenAudit(p.OutDir)
	if err != nil {
		return nil, err
	}
	defer audit.Close()

	res := &Result{SummaryPath: audit.SummaryPath, ResolvedPath: audit.ResolvedPath}
	for _, d := range entry.NearDuplicates(entries) {
		p.warnf("entries %q and %q look like duplicates (similarity %.2f)", d.First, d.Second, d.Similarity)
	}

	runID := p.beginRun(ctx)
	defer p.finishRun(runID, res, len(entries))

	for i, raw := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		fmt.Fprintf(p.out(), "[%d/%d] Resolving: %s\n", i+1, len(entries), raw)

		rec, song, err := p.process(ctx, raw)
		if err != nil {
			return res, err
		}
		if song != nil {
			if err := audit.RecordSong(*song); err != nil {
				return res, fmt.Errorf("write %s: %w", output.SummaryFile, err)
			}
			res.Songs = append(res.Songs, *song)
			p.recordSong(ctx, runID, *song)
		}
		if err := audit.RecordResolution(rec); err != nil {
			return res, fmt.Errorf("write %s: %w", output.ResolvedFile, err)
		}
		res.Resolutions = append(res.Resolutions, rec)

		if err := p.pause(ctx); err != nil {
			return res, err
		}
	}
	if err := audit.Close(); err != nil {
		return res, err
	}
	return res, nil
}

// process walks one entry through the state machine. The returned error is
// fatal to the run; per-entry failures are folded into the records.
func (p *Pipeline) process(ctx context.Context, raw string) (output.ResolutionRecord, *output.SongRecord, error) {
	id, note, err := p.resolve(ctx, raw)
	if cerr := ctx.Err(); cerr != nil {
		return output.ResolutionRecord{}, nil, cerr
	}
	if err != nil {
		var re *lerrors.ResolveError
		if !errors.As(err, &re) {
			return output.ResolutionRecord{}, nil, err
		}
		warnColor.Fprintf(p.out(), "  !! Unable to resolve entry: %s\n", raw)
		p.debugf("%v", err)
		return output.ResolutionRecord{Original: raw, Note: re.Note()}, nil, nil
	}

	detail, err := p.Details.Detail(ctx, id)
	if err != nil {
		p.warnf("metadata for %s unavailable: %v", id, err)
	}
	lyr, err := p.Lyrics.Lyrics(ctx, id)
	if err != nil {
		p.warnf("lyrics for %s unavailable: %v", id, err)
	}
	// An interrupted fetch is not a failed download; leave no trace of it.
	if err := ctx.Err(); err != nil {
		return output.ResolutionRecord{}, nil, err
	}

	dir, err := output.WriteSong(p.OutDir, id, detail.Name, lyr)
	if err != nil {
		return output.ResolutionRecord{}, nil, fmt.Errorf("write song %s: %w", id, err)
	}
	if err := p.writeMerged(id, dir, lyr); err != nil {
		return output.ResolutionRecord{}, nil, err
	}

	song := &output.SongRecord{
		ID:        id,
		Name:      detail.Name,
		Artists:   detail.Artists,
		HasLRC:    lyr.LRC != "",
		HasTLyric: lyr.TLyric != "",
		Folder:    dir,
	}
	rec := output.ResolutionRecord{Original: raw, ID: id, Name: detail.Name, Artists: detail.Artists, Note: note}
	return rec, song, nil
}

// resolve maps raw to a song ID and its audit note.
func (p *Pipeline) resolve(ctx context.Context, raw string) (string, string, error) {
	e := entry.Classify(raw)
	switch e.Kind {
	case entry.ExplicitID:
		return e.ID, output.NoteIDOrURL, nil
	case entry.Query:
		c, err := p.Resolver.Resolve(ctx, e.Query)
		if err != nil {
			return "", "", err
		}
		p.debugf("%q resolved to %s (%s)", raw, c.ID, c.Name)
		return c.ID, output.SearchNote(e.Query.Name, e.Query.Artist), nil
	default:
		return "", "", &lerrors.ResolveError{Type: lerrors.ErrUnrecognized, Entry: raw}
	}
}

// writeMerged aligns the translation onto the original lyrics. A panic while
// merging is reported and the song keeps its raw files.
func (p *Pipeline) writeMerged(id, dir string, lyr catalog.Lyrics) (err error) {
	if lyr.LRC == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(p.out(), "  Merge warning for %s: %v\n", id, r)
			p.warnf("merge %s: %v", id, r)
			err = nil
		}
	}()
	base := lrc.Parse(lyr.LRC)
	var trans lrc.Map
	if lyr.TLyric != "" {
		trans = lrc.Parse(lyr.TLyric)
	}
	lines := lrc.Merge(base, trans, p.Tolerance)
	if err := output.WriteMerged(dir, lines); err != nil {
		return fmt.Errorf("write merged lyrics for %s: %w", id, err)
	}
	if len(lines) > 0 {
		okColor.Fprintf(p.out(), "  merged %d lines\n", len(lines))
	}
	return nil
}

func (p *Pipeline) pause(ctx context.Context) error {
	if p.sleep != nil {
		return p.sleep(ctx, p.Sleep)
	}
	if p.Sleep <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Sleep)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Pipeline) beginRun(ctx context.Context) string {
	if p.History == nil {
		return ""
	}
	id, err := p.History.BeginRun(ctx)
	if err != nil {
		p.warnf("run history: %v", err)
		return ""
	}
	return id
}

func (p *Pipeline) recordSong(ctx context.Context, runID string, s output.SongRecord) {
	if runID == "" {
		return
	}
	err := p.History.RecordSong(ctx, runID, sqlite.Song{
		ID: s.ID, Name: s.Name, Artists: s.Artists, HasLRC: s.HasLRC, HasTLyric: s.HasTLyric, Folder: s.Folder,
	})
	if err != nil {
		p.warnf("run history: %v", err)
	}
}

// finishRun runs on every exit path, so it uses a fresh context.
func (p *Pipeline) finishRun(runID string, res *Result, total int) {
	if runID == "" {
		return
	}
	resolved := res.Resolved()
	counts := sqlite.RunCounts{Entries: total, Resolved: resolved, Unresolved: len(res.Resolutions) - resolved}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.History.FinishRun(ctx, runID, counts); err != nil {
		p.warnf("run history: %v", err)
	}
}

func (p *Pipeline) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stdout
}

func (p *Pipeline) debugf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Debugf(format, args...)
	}
}

func (p *Pipeline) warnf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Warnf(format, args...)
	}
}

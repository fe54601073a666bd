// Package output writes per-song lyric folders and the run's audit CSVs.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	SummaryFile  = "summary.csv"
	ResolvedFile = "resolved.csv"
)

var (
	summaryHeader  = []string{"song_id", "name", "artists", "has_lrc", "has_tlyric", "folder"}
	resolvedHeader = []string{"original_query", "resolved_song_id", "resolved_name", "resolved_artists", "match_note_or_score"}
)

// Audit match notes.
const (
	NoteIDOrURL      = "id_or_url"
	NoteUnresolved   = "unresolved"
	NoteUnrecognized = "unrecognized_entry"
)

// SearchNote is the match note for an entry resolved through search.
func SearchNote(name, artist string) string {
	return fmt.Sprintf("by_search:%s | %s", name, artist)
}

// SongRecord is one summary.csv row.
type SongRecord struct {
	ID        string
	Name      string
	Artists   string
	HasLRC    bool
	HasTLyric bool
	Folder    string
}

func (r SongRecord) row() []string {
	return []string{r.ID, r.Name, r.Artists, flag(r.HasLRC), flag(r.HasTLyric), r.Folder}
}

// ResolutionRecord is one resolved.csv row. ID, Name and Artists are empty for
// unresolved entries.
type ResolutionRecord struct {
	Original string
	ID       string
	Name     string
	Artists  string
	Note     string
}

// Resolved reports whether the entry was mapped to a song.
func (r ResolutionRecord) Resolved() bool {
	return r.ID != ""
}

func (r ResolutionRecord) row() []string {
	return []string{r.Original, r.ID, r.Name, r.Artists, r.Note}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// csvFile is a BOM-prefixed, CRLF-terminated CSV file flushed after every row.
type csvFile struct {
	f   *os.File
	enc io.WriteCloser
	w   *csv.Writer
}

func createCSV(path string, header []string) (*csvFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc := transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(enc)
	w.UseCRLF = true
	c := &csvFile{f: f, enc: enc, w: w}
	if err := c.write(header); err != nil {
		_ = c.close()
		return nil, err
	}
	return c, nil
}

func (c *csvFile) write(row []string) error {
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvFile) close() error {
	c.w.Flush()
	err := c.w.Error()
	if cerr := c.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Audit holds the open summary.csv and resolved.csv writers for a run.
type Audit struct {
	SummaryPath  string
	ResolvedPath string

	summary  *csvFile
	resolved *csvFile
}

// OpenAudit creates outdir if needed and truncates both CSVs, writing their headers.
func OpenAudit(outdir string) (*Audit, error) {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	a := &Audit{
		SummaryPath:  filepath.Join(outdir, SummaryFile),
		ResolvedPath: filepath.Join(outdir, ResolvedFile),
	}
	var err error
	if a.summary, err = createCSV(a.SummaryPath, summaryHeader); err != nil {
		return nil, fmt.Errorf("open %s: %w", SummaryFile, err)
	}
	if a.resolved, err = createCSV(a.ResolvedPath, resolvedHeader); err != nil {
		_ = a.summary.close()
		return nil, fmt.Errorf("open %s: %w", ResolvedFile, err)
	}
	return a, nil
}

func (a *Audit) RecordSong(r SongRecord) error {
	return a.summary.write(r.row())
}

func (a *Audit) RecordResolution(r ResolutionRecord) error {
	return a.resolved.write(r.row())
}

// Close flushes and closes both files. It is safe to call more than once.
func (a *Audit) Close() error {
	var err error
	if a.summary != nil {
		err = a.summary.close()
		a.summary = nil
	}
	if a.resolved != nil {
		if cerr := a.resolved.close(); err == nil {
			err = cerr
		}
		a.resolved = nil
	}
	return err
}

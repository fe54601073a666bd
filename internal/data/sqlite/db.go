package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
	"github.com/lthero-big/163MusicLyricsDownloader/internal/resolver"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339

// DB is the resolution cache and run history, backed by SQLite.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

var _ resolver.Cache = (*DB)(nil)

// Open opens (creating if needed) the SQLite database at path, a file path or
// ":memory:", and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent.
	conn.SetMaxOpenConns(1)
	if err := applySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn, now: time.Now}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying *sql.DB.
func (db *DB) DB() *sql.DB {
	return db.conn
}

// LookupResolution returns the cached winner for key, if any.
func (db *DB) LookupResolution(ctx context.Context, key resolver.CacheKey) (catalog.Candidate, bool, error) {
	var c catalog.Candidate
	var artists string
	err := db.conn.QueryRowContext(ctx,
		"SELECT song_id, name, artists FROM resolutions WHERE query_key = ?", key.String()).
		Scan(&c.ID, &c.Name, &artists)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Candidate{}, false, nil
	}
	if err != nil {
		return catalog.Candidate{}, false, err
	}
	if artists != "" {
		c.Artists = strings.Split(artists, catalog.ArtistSeparator)
	}
	return c, true, nil
}

// SaveResolution stores or replaces the winner for key.
func (db *DB) SaveResolution(ctx context.Context, key resolver.CacheKey, c catalog.Candidate) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO resolutions (query_key, song_id, name, artists, fuzzy, search_limit, resolved_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		key.String(), c.ID, c.Name, c.JoinedArtists(), key.Fuzzy, key.Limit, db.now().UTC().Format(timeLayout))
	return err
}

// RunCounts are the totals recorded when a run finishes.
type RunCounts struct {
	Entries    int
	Resolved   int
	Unresolved int
}

// BeginRun records the start of a run and returns its ID.
func (db *DB) BeginRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.ExecContext(ctx, "INSERT INTO runs (id, started_at) VALUES (?, ?)", id, db.now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// Song is one song written during a run.
type Song struct {
	ID        string
	Name      string
	Artists   string
	HasLRC    bool
	HasTLyric bool
	Folder    string
}

// RecordSong appends a song to the run's history.
func (db *DB) RecordSong(ctx context.Context, runID string, s Song) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO songs (run_id, song_id, name, artists, has_lrc, has_tlyric, folder) VALUES (?, ?, ?, ?, ?, ?, ?)",
		runID, s.ID, s.Name, s.Artists, s.HasLRC, s.HasTLyric, s.Folder)
	return err
}

// FinishRun stamps the run's end time and totals.
func (db *DB) FinishRun(ctx context.Context, runID string, n RunCounts) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, entries = ?, resolved = ?, unresolved = ? WHERE id = ?",
		db.now().UTC().Format(timeLayout), n.Entries, n.Resolved, n.Unresolved, runID)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// Run is a row of run history.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress or was interrupted
	RunCounts
}

// Stats summarizes the cache contents.
type Stats struct {
	Resolutions int
	Runs        int
	Songs       int
	LastRun     *Run
}

// Stats counts cached resolutions, runs and songs, and returns the latest run.
func (db *DB) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"resolutions", &s.Resolutions},
		{"runs", &s.Runs},
		{"songs", &s.Songs},
	} {
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return nil, err
		}
	}

	var r Run
	var started string
	var finished sql.NullString
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, entries, resolved, unresolved FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1").
		Scan(&r.ID, &started, &finished, &r.Entries, &r.Resolved, &r.Unresolved)
	if errors.Is(err, sql.ErrNoRows) {
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("run %s: started_at: %w", r.ID, err)
	}
	if finished.Valid {
		if r.FinishedAt, err = time.Parse(timeLayout, finished.String); err != nil {
			return nil, fmt.Errorf("run %s: finished_at: %w", r.ID, err)
		}
	}
	s.LastRun = &r
	return &s, nil
}

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/catalog"
)

const (
	RawFile    = "raw.lrc"
	TransFile  = "trans.lrc"
	MergedFile = "merged.lrc"
)

var unsafeChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// SanitizeName makes name usable as a path component on Windows and Unix.
func SanitizeName(name string) string {
	s := strings.TrimSpace(unsafeChars.ReplaceAllString(name, "_"))
	if s == "" {
		return "unknown"
	}
	return s
}

// FolderName is the per-song directory name, "{id} - {sanitized name}".
func FolderName(id, name string) string {
	return id + " - " + SanitizeName(name)
}

// WriteSong creates the song's folder under outdir and writes raw.lrc and
// trans.lrc for whichever texts are non-empty. It returns the folder path.
func WriteSong(outdir, id, name string, lyr catalog.Lyrics) (string, error) {
	dir := filepath.Join(outdir, FolderName(id, name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create song dir: %w", err)
	}
	if lyr.LRC != "" {
		if err := os.WriteFile(filepath.Join(dir, RawFile), []byte(lyr.LRC), 0o644); err != nil {
			return dir, err
		}
	}
	if lyr.TLyric != "" {
		if err := os.WriteFile(filepath.Join(dir, TransFile), []byte(lyr.TLyric), 0o644); err != nil {
			return dir, err
		}
	}
	return dir, nil
}

// WriteMerged writes merged.lrc into dir. Nothing is written for zero lines.
func WriteMerged(dir string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	return os.WriteFile(filepath.Join(dir, MergedFile), []byte(strings.Join(lines, "\n")), 0o644)
}

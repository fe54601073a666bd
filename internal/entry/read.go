package entry

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/lthero-big/163MusicLyricsDownloader/internal/text"
)

// NearDuplicateThreshold is the Jaro-Winkler similarity at or above which two
// distinct entries are reported as likely duplicates.
const NearDuplicateThreshold = 0.97

// Read collects entries from a comma-separated inline list followed by the lines
// of file (when file is non-empty). Values are trimmed, blanks dropped and exact
// duplicates removed keeping the first occurrence.
func Read(inline, file string) ([]string, error) {
	var raw []string
	if inline != "" {
		raw = append(raw, strings.Split(inline, ",")...)
	}
	if file != "" {
		lines, err := readLines(file)
		if err != nil {
			return nil, err
		}
		raw = append(raw, lines...)
	}
	return dedupe(raw), nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return lines, nil
}

func dedupe(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(strings.TrimPrefix(r, "\ufeff"))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// NearDuplicate is a pair of distinct entries that normalize to almost the same text.
type NearDuplicate struct {
	First, Second string
	Similarity    float32
}

// NearDuplicates reports pairs of entries whose normalized forms are close
// enough to be probable typos of each other. Entries are never merged; the
// caller decides whether to warn.
func NearDuplicates(entries []string) []NearDuplicate {
	norm := make([]string, len(entries))
	for i, e := range entries {
		norm[i] = text.Normalize(e)
	}
	var out []NearDuplicate
	for i := 0; i < len(entries); i++ {
		if norm[i] == "" {
			continue
		}
		for j := i + 1; j < len(entries); j++ {
			if norm[j] == "" {
				continue
			}
			sim, err := edlib.StringsSimilarity(norm[i], norm[j], edlib.JaroWinkler)
			if err == nil && sim >= NearDuplicateThreshold {
				out = append(out, NearDuplicate{First: entries[i], Second: entries[j], Similarity: sim})
			}
		}
	}
	return out
}

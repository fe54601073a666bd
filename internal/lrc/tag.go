// Package lrc parses timestamped LRC lyrics and aligns a translation onto them.
package lrc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// tagPattern matches [mm:ss] and [mm:ss.f], [mm:ss.ff], [mm:ss.fff].
var tagPattern = regexp.MustCompile(`\[(\d{2}):(\d{2})(?:\.(\d{1,3}))?\]`)

// ParseTag converts a single "[mm:ss(.fff)]" tag to milliseconds. The fraction
// is right-padded with zeros, so ".5" is 500 ms and ".05" is 50 ms. Seconds are
// not range-checked; "[00:75]" is 75000 ms.
func ParseTag(tag string) (int, bool) {
	m := tagPattern.FindStringSubmatch(tag)
	if m == nil || m[0] != tag {
		return 0, false
	}
	return tagMillis(m[1], m[2], m[3]), true
}

func tagMillis(mm, ss, frac string) int {
	minutes, _ := strconv.Atoi(mm)
	seconds, _ := strconv.Atoi(ss)
	ms := 0
	if frac != "" {
		ms, _ = strconv.Atoi(frac + strings.Repeat("0", 3-len(frac)))
	}
	return minutes*60_000 + seconds*1000 + ms
}

// FormatTag renders ms as "[mm:ss.fff]". Minutes are not capped at two digits.
func FormatTag(ms int) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("[%02d:%02d.%03d]", ms/60_000, (ms/1000)%60, ms%1000)
}

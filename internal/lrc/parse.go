package lrc

import (
	"sort"
	"strings"
)

// Map holds lyric text keyed by its offset in milliseconds.
type Map map[int]string

// Times returns the map's offsets in ascending order.
func (m Map) Times() []int {
	out := make([]int, 0, len(m))
	for ts := range m {
		out = append(out, ts)
	}
	sort.Ints(out)
	return out
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Parse builds a Map from raw LRC text. Lines without a valid timestamp tag,
// metadata lines such as "[ar:...]" included, are skipped. A line carrying
// several tags maps its text to each of them; a later line with the same
// timestamp replaces an earlier one.
func Parse(raw string) Map {
	out := make(Map)
	if raw == "" {
		return out
	}
	for _, line := range strings.Split(lineBreaks.Replace(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tags := tagPattern.FindAllStringSubmatch(line, -1)
		if len(tags) == 0 {
			continue
		}
		text := strings.TrimSpace(tagPattern.ReplaceAllString(line, ""))
		for _, m := range tags {
			out[tagMillis(m[1], m[2], m[3])] = text
		}
	}
	return out
}

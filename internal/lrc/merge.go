package lrc

import "sort"

// DefaultTolerance is the widest gap, in milliseconds, between a base line and
// a translated line that still pairs them.
const DefaultTolerance = 500

// MergedLine is one base lyric line with its optional translation.
type MergedLine struct {
	Tag            string
	Base           string
	Translated     string
	HasTranslation bool
}

func (l MergedLine) String() string {
	if l.HasTranslation {
		return l.Tag + l.Base + " / " + l.Translated
	}
	return l.Tag + l.Base
}

// Align pairs every base line, in ascending time order, with the nearest
// translated line no further than tolerance ms away. Only the translation
// offsets on either side of the base offset are considered; on equal distance
// the later one wins. A matched translation with empty text counts as none.
func Align(base, trans Map, tolerance int) []MergedLine {
	if len(base) == 0 {
		return nil
	}
	keys := trans.Times()
	out := make([]MergedLine, 0, len(base))
	for _, ts := range base.Times() {
		line := MergedLine{Tag: FormatTag(ts), Base: base[ts]}
		if best, ok := nearest(keys, ts, tolerance); ok && trans[best] != "" {
			line.Translated = trans[best]
			line.HasTranslation = true
		}
		out = append(out, line)
	}
	return out
}

// Merge renders Align's result as LRC lines.
func Merge(base, trans Map, tolerance int) []string {
	lines := Align(base, trans, tolerance)
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

func nearest(keys []int, target, tolerance int) (int, bool) {
	i := sort.SearchInts(keys, target)
	best, bestDist, found := 0, 0, false
	for _, j := range [2]int{i, i - 1} {
		if j < 0 || j >= len(keys) {
			continue
		}
		d := keys[j] - target
		if d < 0 {
			d = -d
		}
		if d > tolerance {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = keys[j], d, true
		}
	}
	return best, found
}

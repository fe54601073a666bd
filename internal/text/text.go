// Package text normalizes song and artist strings and scores their similarity.
package text

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CJK Unified Ideographs block. Han runes are letters already; the range is kept
// explicit so the retained set does not depend on Unicode table revisions.
const (
	cjkFirst = '\u4e00'
	cjkLast  = '\u9fff'
)

// Normalize lower-cases s and drops every rune that is not a letter, a number or
// a CJK ideograph. Whitespace and punctuation disappear entirely, so
// "Shape of You!" and "shapeofyou" normalize to the same string.
func Normalize(s string) string {
	// cases.Caser keeps state between calls; one per call.
	s = cases.Lower(language.Und).String(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keep(r rune) bool {
	if r >= cjkFirst && r <= cjkLast {
		return true
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Similarity returns 2*M/T for the normalized forms of a and b, where M is the
// number of runes in the matching blocks found by difflib's SequenceMatcher and
// T is the combined rune length. Two empty strings are identical (1.0); an empty
// string against a non-empty one scores 0.
func Similarity(a, b string) float64 {
	m := difflib.NewMatcher(runeSeq(Normalize(a)), runeSeq(Normalize(b)))
	return m.Ratio()
}

// runeSeq splits s into one element per rune so multi-byte characters count once.
func runeSeq(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

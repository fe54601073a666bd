package lrc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTag_RoundTrip(t *testing.T) {
	for _, ms := range []int{0, 1000, 61234, 3599999} {
		tag := FormatTag(ms)
		got, ok := ParseTag(tag)
		require.True(t, ok, "tag %s", tag)
		require.Equal(t, ms, got, "tag %s", tag)
	}
	require.Equal(t, "[59:59.999]", FormatTag(3599999))
	require.Equal(t, "[01:01.234]", FormatTag(61234))
}

func TestParseTag_FractionPadding(t *testing.T) {
	cases := map[string]int{
		"[00:01]":     1000,
		"[00:01.5]":   1500,
		"[00:01.50]":  1500,
		"[00:01.05]":  1050,
		"[00:01.005]": 1005,
		"[02:03.456]": 123456,
		"[00:75]":     75000,
	}
	for tag, want := range cases {
		got, ok := ParseTag(tag)
		require.True(t, ok, "tag %s", tag)
		require.Equal(t, want, got, "tag %s", tag)
	}
}

func TestParseTag_Malformed(t *testing.T) {
	for _, tag := range []string{"", "[0:01]", "[00:1]", "[00:01.1234]", "[ar:Adele]", "00:01.00", "[00:01.00]x"} {
		_, ok := ParseTag(tag)
		require.False(t, ok, "tag %q", tag)
	}
}

func TestParse_Example(t *testing.T) {
	m := Parse("[00:01.50]Hello\n[00:02.00]World")
	require.Equal(t, Map{1500: "Hello", 2000: "World"}, m)
}

func TestParse_MultiTagAndMetadata(t *testing.T) {
	raw := "[ti:Song]\r\n[ar:Someone]\r\n\r\n[00:10.00][00:40.00] Chorus \r[00:20.1]Verse\n[xx:yy]junk\nno tags here\n[00:30.00]\n"
	m := Parse(raw)
	require.Equal(t, Map{10000: "Chorus", 40000: "Chorus", 20100: "Verse", 30000: ""}, m)
	require.Equal(t, []int{10000, 20100, 30000, 40000}, m.Times())
}

func TestParse_LastWriteWins(t *testing.T) {
	m := Parse("[00:01.00]first\n[00:01.00]second")
	require.Equal(t, Map{1000: "second"}, m)
}

func TestParse_Empty(t *testing.T) {
	require.Empty(t, Parse(""))
	require.Empty(t, Parse("\n\n  \n"))
}

func TestMerge_Examples(t *testing.T) {
	base := Map{1000: "Hi"}
	require.Equal(t, []string{"[00:01.000]Hi / 你好"}, Merge(base, Map{1450: "你好"}, DefaultTolerance))
	require.Equal(t, []string{"[00:01.000]Hi"}, Merge(base, Map{2000: "你好"}, DefaultTolerance))
}

func TestMerge_EmptyBase(t *testing.T) {
	require.Empty(t, Merge(Map{}, Map{1000: "x"}, DefaultTolerance))
	require.Empty(t, Merge(nil, nil, DefaultTolerance))
}

func TestMerge_ToleranceInclusive(t *testing.T) {
	base := Map{1000: "a"}
	require.Equal(t, []string{"[00:01.000]a / b"}, Merge(base, Map{1500: "b"}, 500))
	require.Equal(t, []string{"[00:01.000]a / b"}, Merge(base, Map{500: "b"}, 500))
	require.Equal(t, []string{"[00:01.000]a"}, Merge(base, Map{1501: "b"}, 500))
}

func TestMerge_LaterNeighbourWinsTie(t *testing.T) {
	base := Map{1000: "a"}
	got := Merge(base, Map{800: "before", 1200: "after"}, 500)
	require.Equal(t, []string{"[00:01.000]a / after"}, got)

	got = Merge(base, Map{900: "before", 1200: "after"}, 500)
	require.Equal(t, []string{"[00:01.000]a / before"}, got)
}

func TestMerge_EmptyTranslationIsNoMatch(t *testing.T) {
	got := Merge(Map{1000: "a"}, Map{1000: "", 1100: "b"}, 500)
	require.Equal(t, []string{"[00:01.000]a"}, got)
}

func TestMerge_SortedAndRetagged(t *testing.T) {
	base := Parse("[00:03.5]three\n[00:01]one\n[00:02.00]two")
	trans := Parse("[00:01.10]一\n[00:03.40]三")
	require.Equal(t, []string{
		"[00:01.000]one / 一",
		"[00:02.000]two",
		"[00:03.500]three / 三",
	}, Merge(base, trans, DefaultTolerance))
}

func TestAlign_Fields(t *testing.T) {
	lines := Align(Map{1000: "Hi"}, Map{1000: "你好"}, 0)
	require.Len(t, lines, 1)
	require.Equal(t, MergedLine{Tag: "[00:01.000]", Base: "Hi", Translated: "你好", HasTranslation: true}, lines[0])
}

package prefixscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindPrefixMatchSingleToken(t *testing.T) {
	normalized := []rune("alpha beta")
	start, end, ok := FindPrefixMatch(normalized, nil, "be", false)
	require.True(t, ok)
	require.Equal(t, 6, start)
	require.Equal(t, 8, end)
}

func TestFindPrefixMatchHeadPlusPrefix(t *testing.T) {
	normalized := []rune("gamma alpha beta zeta")
	start, end, ok := FindPrefixMatch(normalized, []string{"alpha"}, "be", false)
	require.True(t, ok)
	require.Equal(t, 6, start)
	require.Equal(t, 14, end)
}

func TestFindPrefixMatchRequiresWordBoundary(t *testing.T) {
	// "malpha" contains "alpha" but not at a word boundary.
	normalized := []rune("malpha beta")
	_, _, ok := FindPrefixMatch(normalized, []string{"alpha"}, "be", false)
	require.False(t, ok)
}

func TestFindPrefixMatchRequireFullWord(t *testing.T) {
	normalized := []rune("alpha beta")
	start, end, ok := FindPrefixMatch(normalized, []string{"alpha"}, "", true)
	require.True(t, ok)
	require.Equal(t, 0, start)
	require.Equal(t, 10, end)
}

func TestFindPrefixMatchNoMatch(t *testing.T) {
	normalized := []rune("gamma delta")
	_, _, ok := FindPrefixMatch(normalized, []string{"alpha"}, "be", false)
	require.False(t, ok)
}

func TestSpanIsCleanWordPrefixAccepts(t *testing.T) {
	require.True(t, SpanIsCleanWordPrefix("alpha beta", 0, 10))
}

func TestSpanIsCleanWordPrefixRejectsHyphen(t *testing.T) {
	require.False(t, SpanIsCleanWordPrefix("up-to-date", 0, 10))
}

func TestSpanIsCleanWordPrefixOutOfRange(t *testing.T) {
	require.False(t, SpanIsCleanWordPrefix("abc", 1, 10))
}

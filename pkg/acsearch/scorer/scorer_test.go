package scorer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExactSubstringMatch(t *testing.T) {
	m, ok := Score("to be", "to be or not to be that is the question")
	require.True(t, ok)
	require.EqualValues(t, 10, m.Score)
	require.Equal(t, 0, m.Start)
	require.Equal(t, 5, m.Window)
}

func TestSubstitutionAtPositionOne(t *testing.T) {
	// |Q|=5, substitution at 1-based position 1: 2*4 + (-5) = 3.
	m, ok := Score("xello", "hello")
	require.True(t, ok)
	require.EqualValues(t, 3, m.Score)
}

func TestSubstitutionAtPositionFour(t *testing.T) {
	// "helpo" vs "hello": only code point 4 (1-based) differs
	// (p vs l), so score = 2*4 + subPenalty(4) = 8-2 = 6.
	m, ok := Score("helpo", "hello world")
	require.True(t, ok)
	require.EqualValues(t, 6, m.Score)
}

func TestMissingCharInQuery(t *testing.T) {
	// Query "nsert" vs "insert text": skipping the leading "i" of the
	// 6-char window at offset 0 reproduces the query; p=1, score =
	// 2*5-10=0. "nsert" also occurs exactly at offset 1 (score 2*5=10),
	// and the best strategy wins.
	require.Contains(t, deletionInQueryMatches([]rune("nsert"), []rune("insert text")), Match{Score: 0, Start: 0, Window: 6})
	m, ok := Score("nsert", "insert text")
	require.True(t, ok)
	require.EqualValues(t, 10, m.Score)
}

func TestAddedCharInQuery(t *testing.T) {
	// Sentence "cat" normalized; query "ccat" has one extra code point.
	// Skipping query index 1 (0-based) reproduces "cat": window=3,
	// p=2, score = 2*3 + indelPenalty(2) = 6-8 = -2.
	m, ok := Score("ccat", "cat")
	require.True(t, ok)
	require.EqualValues(t, -2, m.Score)
	require.Equal(t, 0, m.Start)
	require.Equal(t, 3, m.Window)
}

func TestNoMatchTooShortSentence(t *testing.T) {
	_, ok := Score("alphabet", "hi")
	require.False(t, ok)
}

func TestTieBreakEarliestStart(t *testing.T) {
	m, ok := Score("ab", "xx ab yy ab")
	require.True(t, ok)
	require.EqualValues(t, 4, m.Score)
	require.Equal(t, 3, m.Start)
}

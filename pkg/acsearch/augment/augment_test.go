package augment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"acsearch/pkg/acsearch/model"
	"acsearch/pkg/acsearch/wordindex"
)

func sampleIndex() *wordindex.Index {
	sentences := []model.Sentence{
		{ID: 0, Normalized: "alpha beta"},
		{ID: 1, Normalized: "alpha beta"},
		{ID: 2, Normalized: "alpha beta"},
		{ID: 3, Normalized: "gamma delta"},
	}
	return wordindex.Build(sentences)
}

func TestAugmentExactTokenNoPenalty(t *testing.T) {
	res := Augment("alpha beta", sampleIndex())
	require.Equal(t, "alpha beta", res.CorrectedQuery)
	require.EqualValues(t, 0, res.TotalPenalty)
}

func TestAugmentCorrectsSubstitution(t *testing.T) {
	res := Augment("alppa", sampleIndex())
	require.Equal(t, "alpha", res.CorrectedQuery)
	require.Less(t, res.TotalPenalty, int32(0))
}

func TestAugmentPreservesTrailingSpace(t *testing.T) {
	res := Augment("alpha ", sampleIndex())
	require.Equal(t, "alpha ", res.CorrectedQuery)
}

func TestAugmentEmptyQuery(t *testing.T) {
	res := Augment("", sampleIndex())
	require.Equal(t, "", res.CorrectedQuery)
	require.EqualValues(t, 0, res.TotalPenalty)
}

func TestAugmentUnrecognizableTokenLeftAsIs(t *testing.T) {
	res := Augment("zzzzzzzzzzzzzzzzzzzz", sampleIndex())
	require.Equal(t, "zzzzzzzzzzzzzzzzzzzz", res.CorrectedQuery)
}

func TestBetterPrefersLexicographicallySmallerOverAlphabetic(t *testing.T) {
	// Same tf and penalty: "1bc" is lexicographically smaller than
	// "abc", so it wins even though the original token has letters
	// and "abc" is the purely-alphabetic candidate.
	require.True(t, better(1, 0, "1bc", true, 1, 0, "abc"))
	require.False(t, better(1, 0, "abc", true, 1, 0, "1bc"))
}

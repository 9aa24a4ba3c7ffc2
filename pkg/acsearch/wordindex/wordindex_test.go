package wordindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"acsearch/pkg/acsearch/model"
)

func sample() *Index {
	sentences := []model.Sentence{
		{ID: 0, Normalized: "alpha beta"},
		{ID: 1, Normalized: "alpha zeta"},
		{ID: 2, Normalized: "gamma delta"},
	}
	return Build(sentences)
}

func TestLexiconSorted(t *testing.T) {
	idx := sample()
	require.Equal(t, []string{"alpha", "beta", "delta", "gamma", "zeta"}, idx.Lexicon())
}

func TestCandidatesForTermPrefixExact(t *testing.T) {
	idx := sample()
	cands := idx.CandidatesForTermPrefix("alp", 100, 100)
	require.Contains(t, cands, uint32(0))
	require.Contains(t, cands, uint32(1))
	require.NotContains(t, cands, uint32(2))
}

func TestCandidatesForTermPrefixOneEdit(t *testing.T) {
	idx := sample()
	// "alppha" contains a one-char insertion typo; the neighborhood
	// scan should still surface terms starting with "alph".
	cands := idx.CandidatesForTermPrefix("alppha", 100, 100)
	require.Contains(t, cands, uint32(0))
}

func TestCandidatesForPrefixQueryHeadAndTail(t *testing.T) {
	idx := sample()
	cands := idx.CandidatesForPrefixQuery("alpha be", false, 100, 100)
	require.Contains(t, cands, uint32(0))
	// "zeta" and "delta" are each one edit from the prefix "be"; only
	// the sentence lacking the head token "alpha" is filtered out.
	require.Contains(t, cands, uint32(1))
	require.NotContains(t, cands, uint32(2))
}

func TestCandidatesForPrefixQueryTrailingSpace(t *testing.T) {
	idx := sample()
	cands := idx.CandidatesForPrefixQuery("alpha ", true, 100, 100)
	require.Contains(t, cands, uint32(0))
	require.Contains(t, cands, uint32(1))
}

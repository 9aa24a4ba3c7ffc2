package normalize

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestNormalizeBasic(t *testing.T) {
	res := Normalize("To be, or not to be: that is the question.")
	require.Equal(t, "to be or not to be that is the question", res.Text)
	require.Equal(t, utf8.RuneCountInString(res.Text), len(res.Map))
}

func TestNormalizeCollapsesWhitespaceRuns(t *testing.T) {
	res := Normalize("hello   \t\n world")
	require.Equal(t, "hello world", res.Text)
	require.Equal(t, utf8.RuneCountInString(res.Text), len(res.Map))
}

func TestNormalizeNoLeadingTrailingSpace(t *testing.T) {
	res := Normalize("  leading and trailing  ")
	require.Equal(t, "leading and trailing", res.Text)
	require.False(t, len(res.Text) > 0 && res.Text[0] == ' ')
	require.False(t, len(res.Text) > 0 && res.Text[len(res.Text)-1] == ' ')
}

func TestNormalizeMapPointsWithinOriginal(t *testing.T) {
	original := "Café con leche."
	res := Normalize(original)
	for _, off := range res.Map {
		require.Less(t, int(off), len(original))
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first := Normalize("Hello, World!  Foo-Bar.")
	second := Normalize(first.Text)
	require.Equal(t, first.Text, second.Text)
}

func TestNormalizeOnlyPunctuation(t *testing.T) {
	res := Normalize("!!! ... ???")
	require.Equal(t, "", res.Text)
	require.Empty(t, res.Map)
}

func TestNormalizeUnicodeLettersKept(t *testing.T) {
	res := Normalize("Café")
	require.Equal(t, "café", res.Text)
}

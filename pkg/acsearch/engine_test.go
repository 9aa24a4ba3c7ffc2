package acsearch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"acsearch/internal/acconfig"
	"acsearch/pkg/acsearch/model"
)

func buildTestEngine(t *testing.T, corpus map[string]string, cfg acconfig.Config) *Engine {
	t.Helper()
	corpusDir := t.TempDir()
	for name, body := range corpus {
		require.NoError(t, os.WriteFile(filepath.Join(corpusDir, name), []byte(body), 0o644))
	}
	outDir := t.TempDir()
	paths := Paths{
		ACXPath:        filepath.Join(outDir, "c.acx"),
		CDBPath:        filepath.Join(outDir, "c.cdb"),
		PrefixSumsPath: filepath.Join(outDir, "c.fps"),
	}
	require.NoError(t, Build([]string{corpusDir}, cfg, paths, nil))
	engine, err := Load(paths, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Shutdown() })
	return engine
}

func TestCompleteSubstitutionMatch(t *testing.T) {
	engine := buildTestEngine(t, map[string]string{"a.txt": "hello world\n"}, acconfig.Defaults())
	results, err := engine.Complete("helpo", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.EqualValues(t, 6, results[0].Score)
}

func TestCompleteTieBreakLexicographicOrder(t *testing.T) {
	cfg := acconfig.Defaults()
	engine := buildTestEngine(t, map[string]string{
		"a.txt": "zzz ab\nab yyy\n",
	}, cfg)
	results, err := engine.Complete("ab", 5)
	require.NoError(t, err)
	require.True(t, len(results) >= 2)
	require.LessOrEqual(t, results[0].CompletedSentence, results[1].CompletedSentence)
}

func TestCompleteMissingCharInQuery(t *testing.T) {
	engine := buildTestEngine(t, map[string]string{"a.txt": "insert text here\n"}, acconfig.Defaults())
	results, err := engine.Complete("nsert", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	// "nsert" is also an exact substring of "insert", which outscores
	// the missing-char alignment (0): 2*5 = 10.
	require.EqualValues(t, 10, results[0].Score)
}

func TestCompleteUnicodeNormalization(t *testing.T) {
	engine := buildTestEngine(t, map[string]string{"a.txt": "Café con leche.\n"}, acconfig.Defaults())
	results, err := engine.Complete("cafe con", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.EqualValues(t, 0, results[0].Offset)
}

func TestCompleteEmptyQueryReturnsEmpty(t *testing.T) {
	engine := buildTestEngine(t, map[string]string{"a.txt": "hello\n"}, acconfig.Defaults())
	results, err := engine.Complete("", 5)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestCompleteTruncatesToK(t *testing.T) {
	engine := buildTestEngine(t, map[string]string{
		"a.txt": "ab cd\nab ef\nab gh\nab ij\n",
	}, acconfig.Defaults())
	results, err := engine.Complete("ab", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestCompletePrefixMode(t *testing.T) {
	cfg := acconfig.Defaults()
	cfg.SearchMode = model.ModePrefix
	engine := buildTestEngine(t, map[string]string{
		"a.txt": "the quick brown fox\nthe slow turtle\n",
	}, cfg)
	results, err := engine.Complete("qui", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Contains(t, results[0].CompletedSentence, "quick")
}

func TestPutOverlayIsVisibleToComplete(t *testing.T) {
	engine := buildTestEngine(t, map[string]string{"a.txt": "original text\n"}, acconfig.Defaults())
	engine.Put(0, Sentence{
		ID:         0,
		Path:       "a.txt",
		Normalized: "brand new text",
		Original:   "brand new text",
		NormToOrig: identityMap(len("brand new text")),
	})
	results, err := engine.Complete("brand new", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "brand new text", results[0].CompletedSentence)
}

func TestDeleteOverlayHidesSentence(t *testing.T) {
	engine := buildTestEngine(t, map[string]string{"a.txt": "unique phrase here\n"}, acconfig.Defaults())
	engine.Delete(0)
	results, err := engine.Complete("unique phrase", 5)
	require.NoError(t, err)
	require.Empty(t, results)
}

func identityMap(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}


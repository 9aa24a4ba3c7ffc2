package acx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.acx")

	items := map[string][]uint32{
		"the": {3, 1, 2, 2, 1},
		"heq": {5},
		"ick": {9, 4},
	}
	require.NoError(t, Build(path, 3, items))

	idx, err := Open(path)
	require.NoError(t, err)
	defer idx.Close()

	require.Equal(t, 3, idx.K())
	require.Equal(t, []uint32{1, 2, 3}, idx.Get([]byte("the")))
	require.Equal(t, []uint32{4, 9}, idx.Get([]byte("ick")))
	require.Nil(t, idx.Get([]byte("zzz")))
}

func TestIterItemsKeyAscending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.acx")
	items := map[string][]uint32{
		"ccc": {1},
		"aaa": {2},
		"bbb": {3},
	}
	require.NoError(t, Build(path, 3, items))

	idx, err := Open(path)
	require.NoError(t, err)
	defer idx.Close()

	var keys []string
	for item := range idx.IterItems() {
		keys = append(keys, string(item.Key))
	}
	require.Equal(t, []string{"aaa", "bbb", "ccc"}, keys)
}

func TestOpenRejectsOversizedKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.acx")
	require.NoError(t, Build(path, 3, map[string][]uint32{"abc": {1}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Corrupt: bump the recorded key length byte past the remaining
	// buffer so Open must refuse rather than read out of bounds.
	data[headerSize] = 255
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(path)
	require.Error(t, err)
}

package cdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixSumsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.fps")

	want := map[string][]uint64{
		"a.txt": {0, 21, 33},
		"b.txt": {0},
	}
	require.NoError(t, WritePrefixSums(path, want))

	got, err := OpenPrefixSums(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestPrefixSumsRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.fps")
	require.NoError(t, os.WriteFile(path, []byte("NOPE"), 0o644))

	_, err := OpenPrefixSums(path)
	require.Error(t, err)
}

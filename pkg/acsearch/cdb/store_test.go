package cdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"acsearch/pkg/acsearch/model"
)

func sampleSentences() []model.Sentence {
	return []model.Sentence{
		{ID: 0, Path: "a.txt", LineNo: 0, Original: "To be, or not to be.", Normalized: "to be or not to be", NormToOrig: []uint32{0, 1, 2, 4, 6, 7, 9, 10, 12, 13, 14, 15, 16, 18, 19}},
		{ID: 1, Path: "a.txt", LineNo: 1, Original: "Hello world", Normalized: "hello world", NormToOrig: []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{ID: 2, Path: "b.txt", LineNo: 0, Original: "", Normalized: "", NormToOrig: nil},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.cdb")

	want := sampleSentences()
	require.NoError(t, WriteAtomic(path, want))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, len(want), s.Count())
	for _, w := range want {
		got, err := s.Get(w.ID)
		require.NoError(t, err)
		require.Equal(t, w, got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.cdb")
	require.NoError(t, WriteAtomic(path, sampleSentences()))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(999)
	require.Error(t, err)
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStoreOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.cdb")
	require.NoError(t, WriteAtomic(path, sampleSentences()))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	s.OverlayPut(1, model.Sentence{ID: 1, Path: "a.txt", Original: "patched", Normalized: "patched"})
	got, err := s.Get(1)
	require.NoError(t, err)
	require.Equal(t, "patched", got.Original)

	s.OverlayDelete(0)
	_, err = s.Get(0)
	require.Error(t, err)

	ids := []uint32{0, 1, 2, 999}
	var seen []uint32
	for sent := range s.Iter(ids) {
		seen = append(seen, sent.ID)
	}
	require.Equal(t, []uint32{1, 2}, seen)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cdb")
	require.NoError(t, os.WriteFile(path, []byte("NOPE1234"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
}

func TestOpenRejectsChecksumTamper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.cdb")
	require.NoError(t, WriteAtomic(path, sampleSentences()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(path)
	require.Error(t, err)
}

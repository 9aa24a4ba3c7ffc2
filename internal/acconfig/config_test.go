package acconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"acsearch/pkg/acsearch/model"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.EqualValues(t, 3, cfg.K)
	require.EqualValues(t, 5, cfg.TopK)
	require.Equal(t, model.UnitLine, cfg.TextUnit)
	require.Equal(t, model.ModeSubstring, cfg.SearchMode)
	require.Equal(t, 15000, cfg.MaxCandidates)
}

func TestLoadYamlOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: 10\nsearch_mode: prefix\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 10, cfg.TopK)
	require.Equal(t, model.ModePrefix, cfg.SearchMode)
	require.EqualValues(t, 3, cfg.K) // untouched default
}

func TestEnvOverridesYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: 10\n"), 0o644))

	t.Setenv("ACSEARCH_TOP_K", "42")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.EqualValues(t, 42, cfg.TopK)
}

func TestLoadRejectsUnknownSearchMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search_mode: telepathic\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 0.5, cfg.Search.BM25Weight)
	assert.Equal(t, 0.5, cfg.Search.SemanticWeight)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, "sqlite", cfg.Search.BM25Backend)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	require.NoError(t, cfg.Validate())
}

func TestLoadAppliesProjectFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	yamlContent := []byte("search:\n  bm25_weight: 0.3\n  semantic_weight: 0.7\n  bm25_backend: bleve\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".memoir.yaml"), yamlContent, 0644))

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Search.BM25Weight)
	assert.Equal(t, 0.7, cfg.Search.SemanticWeight)
	assert.Equal(t, "bleve", cfg.Search.BM25Backend)
}

func TestEnvOverridesWinOverProjectFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".memoir.yaml"), []byte("search:\n  bm25_backend: bleve\n"), 0644))
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MEMOIR_BM25_BACKEND", "sqlite")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Search.BM25Backend)
}

func TestValidateRejectsWeightsNotSummingToOne(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.BM25Weight = 0.9
	cfg.Search.SemanticWeight = 0.9
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.BM25Backend = "elastic"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.Provider = "openai"
	assert.Error(t, cfg.Validate())
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	cfg := NewConfig()
	cfg.Search.BM25Backend = "bleve"
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, "bleve", loaded.Search.BM25Backend)
}

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBM25IndexWithBackendSQLiteDefault(t *testing.T) {
	idx, err := NewBM25IndexWithBackend("", DefaultBM25Config(), "")
	require.NoError(t, err)
	defer idx.Close()

	_, isSQLite := idx.(*SQLiteBM25Index)
	assert.True(t, isSQLite)
}

func TestNewBM25IndexWithBackendBleve(t *testing.T) {
	idx, err := NewBM25IndexWithBackend("", DefaultBM25Config(), "bleve")
	require.NoError(t, err)
	defer idx.Close()

	_, isBleve := idx.(*BleveBM25Index)
	assert.True(t, isBleve)
}

func TestNewBM25IndexWithBackendUnknown(t *testing.T) {
	_, err := NewBM25IndexWithBackend("", DefaultBM25Config(), "lucene")
	assert.Error(t, err)
}

func TestDetectBM25BackendReflectsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "bm25")

	assert.Equal(t, BM25Backend(""), DetectBM25Backend(base))

	idx, err := NewBM25IndexWithBackend(base, DefaultBM25Config(), "sqlite")
	require.NoError(t, err)
	require.NoError(t, idx.Save(""))
	require.NoError(t, idx.Close())

	assert.Equal(t, BM25BackendSQLite, DetectBM25Backend(base))
}

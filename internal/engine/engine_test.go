package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelmd/memoir/internal/config"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Embeddings.Provider = "static"
	cfg.Embeddings.Dimensions = 4
	cfg.Search.BM25Backend = "sqlite"

	e := New(cfg, t.TempDir(), t.TempDir())
	require.NoError(t, e.Initialize(context.Background()))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestInitializeIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(context.Background()))
	assert.True(t, e.initialized)
}

func TestCloseIsIdempotentAndRunsEveryStep(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}

func TestOperationsBeforeInitializeError(t *testing.T) {
	cfg := config.NewConfig()
	e := New(cfg, t.TempDir(), t.TempDir())
	_, err := e.ListCollections(context.Background())
	assert.Error(t, err)
}

func TestAddCollectionRejectsMissingPath(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AddCollection(context.Background(), "bad", "/nonexistent/path/xyz", "")
	assert.Error(t, err)
}

func TestAddCollectionThenReindexThenSearch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	root := t.TempDir()
	writeFile(t, root, "a.md", "# Title\n\nzones are memory regions")

	_, err := e.AddCollection(ctx, "docs", root, "")
	require.NoError(t, err)

	results, err := e.Reindex(ctx, false)
	require.NoError(t, err)
	require.Contains(t, results, "docs")
	assert.Equal(t, 1, results["docs"].Indexed)

	hits, err := e.Search(ctx, "zones", QueryOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestRemoveCollectionCascades(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	root := t.TempDir()
	writeFile(t, root, "a.md", "body")
	added, err := e.AddCollection(ctx, "docs", root, "")
	require.NoError(t, err)
	_, err = e.Reindex(ctx, false)
	require.NoError(t, err)
	doc, err := e.st.GetDocument(ctx, added.ID, "a.md")
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.NoError(t, e.RemoveCollection(ctx, "docs"))

	col, err := e.GetCollection(ctx, "docs")
	require.NoError(t, err)
	assert.Nil(t, col)

	doc, err = e.st.GetDocument(ctx, added.ID, "a.md")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestEmbedQueryAndDocumentUseDistinctFormatting(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	qv, err := e.EmbedQuery(ctx, "hello")
	require.NoError(t, err)
	dv, err := e.EmbedDocument(ctx, "hello")
	require.NoError(t, err)

	assert.Len(t, qv, 4)
	assert.Len(t, dv, 4)
	assert.NotEqual(t, qv, dv)
}

func TestMemoirRoundTripThroughEngine(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.MemSet(ctx, "notes.today", "body", map[string]any{"mood": "good"})
	require.NoError(t, err)

	entry, err := e.MemGet(ctx, "notes.today")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "good", entry.Metadata["mood"])
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

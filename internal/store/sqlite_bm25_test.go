package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDoc(id, title, content string) *Document {
	return &Document{ID: id, Title: title, Content: content}
}

func TestSQLiteBM25IndexSearchRanksByRelevance(t *testing.T) {
	idx, err := NewSQLiteBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	docs := []*Document{
		newTestDoc("a", "", "zones are the core organizing concept of memoir"),
		newTestDoc("b", "", "unrelated text about gardening"),
		newTestDoc("c", "", "zones zones zones dominate this document about zones"),
	}
	require.NoError(t, idx.Index(ctx, docs))

	results, err := idx.Search(ctx, "zones", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c", results[0].DocID)
	assert.Equal(t, "a", results[1].DocID)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.Less(t, r.Score, 1.0)
	}
}

func TestSQLiteBM25IndexEmptyQueryReturnsEmpty(t *testing.T) {
	idx, err := NewSQLiteBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	results, err := idx.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteBM25IndexCJKQuery(t *testing.T) {
	idx, err := NewSQLiteBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*Document{
		newTestDoc("jp", "", "東京タワーの歴史"),
	}))

	results, err := idx.Search(ctx, "東京", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "jp", results[0].DocID)
}

func TestSQLiteBM25IndexReindexReplacesDocument(t *testing.T) {
	idx, err := NewSQLiteBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*Document{newTestDoc("a", "", "original content")}))
	require.NoError(t, idx.Index(ctx, []*Document{newTestDoc("a", "", "replacement body")}))

	results, err := idx.Search(ctx, "original", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search(ctx, "replacement", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSQLiteBM25IndexDeleteAndAllIDs(t *testing.T) {
	idx, err := NewSQLiteBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*Document{
		newTestDoc("a", "", "one"),
		newTestDoc("b", "", "two"),
	}))

	ids, err := idx.AllIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, idx.Delete(ctx, []string{"a"}))
	ids, err = idx.AllIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestSQLiteBM25IndexRejectsFTSMetacharactersSafely(t *testing.T) {
	idx, err := NewSQLiteBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*Document{newTestDoc("a", "", "quoted terms")}))

	_, err = idx.Search(ctx, `"quoted" * ^ \`, 10)
	require.NoError(t, err)
}

func TestSQLiteBM25IndexClosedRejectsOperations(t *testing.T) {
	idx, err := NewSQLiteBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = idx.Search(context.Background(), "x", 10)
	assert.Error(t, err)
}

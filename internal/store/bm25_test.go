package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBleveBM25IndexSearchAndDelete(t *testing.T) {
	idx, err := NewBleveBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*Document{
		newTestDoc("a", "", "zones are the core organizing concept"),
		newTestDoc("b", "", "unrelated gardening notes"),
	}))

	results, err := idx.Search(ctx, "zones", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].DocID)

	require.NoError(t, idx.Delete(ctx, []string{"a"}))
	results, err = idx.Search(ctx, "zones", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveBM25IndexCJKTokenization(t *testing.T) {
	idx, err := NewBleveBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*Document{newTestDoc("jp", "", "東京タワー")}))

	results, err := idx.Search(ctx, "東京", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestBleveBM25IndexEmptyQuery(t *testing.T) {
	idx, err := NewBleveBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	results, err := idx.Search(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveBM25IndexStats(t *testing.T) {
	idx, err := NewBleveBM25Index("", DefaultBM25Config())
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Index(context.Background(), []*Document{
		newTestDoc("a", "", "one"),
		newTestDoc("b", "", "two"),
	}))

	assert.Equal(t, 2, idx.Stats().DocumentCount)
}

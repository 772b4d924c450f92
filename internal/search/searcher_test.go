package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelmd/memoir/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(context.Background(), store.Options{DataDir: dir, BM25Backend: "sqlite", Dimensions: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testCollection(t *testing.T, st *store.Store) *store.Collection {
	t.Helper()
	c, err := st.AddCollection(context.Background(), "notes", t.TempDir(), "**/*.md")
	require.NoError(t, err)
	return c
}

func unitVec(hot int) []float32 {
	v := make([]float32, 4)
	v[hot%4] = 1
	return v
}

func TestSearchEmptyQueryAndNoEmbeddingReturnsEmpty(t *testing.T) {
	st := newTestStore(t)
	s := New(st, DefaultConfig())

	results, err := s.Search(context.Background(), "", Options{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchBM25OnlyReturnsKeywordMatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	col := testCollection(t, st)

	_, err := st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "a.md", Title: "Zones", Body: "zones are memory regions"})
	require.NoError(t, err)
	_, err = st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "b.md", Title: "Gardening", Body: "tomatoes and basil"})
	require.NoError(t, err)

	s := New(st, DefaultConfig())
	results, err := s.Search(ctx, "zones", Options{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Zones", results[0].Document.Title)
	assert.Equal(t, SourceBM25, results[0].Source)
}

func TestSearchHybridFusesBothSidesAndTagsSource(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	col := testCollection(t, st)

	docA, err := st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "a.md", Title: "Zones", Body: "zones are memory regions"})
	require.NoError(t, err)
	require.NoError(t, st.InsertEmbedding(ctx, docA.ContentHash, 0, 0, "static-4", unitVec(0)))

	docB, err := st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "b.md", Title: "Other", Body: "zones mentioned here too"})
	require.NoError(t, err)
	require.NoError(t, st.InsertEmbedding(ctx, docB.ContentHash, 0, 0, "static-4", unitVec(1)))

	s := New(st, DefaultConfig())
	results, err := s.Search(ctx, "zones", Options{Limit: 10, QueryEmbedding: unitVec(0)})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, SourceHybrid, results[0].Source)
}

func TestSearchKeywordRerankScoresTokenBoundaryMatchesHigher(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	col := testCollection(t, st)

	d1, err := st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "a.md", Title: "zones", Body: "a page about zones and memory"})
	require.NoError(t, err)
	require.NoError(t, st.InsertEmbedding(ctx, d1.ContentHash, 0, 0, "static-4", unitVec(0)))

	d2, err := st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "b.md", Title: "unrelated", Body: "amazonzoneswest is not the word zones"})
	require.NoError(t, err)
	require.NoError(t, st.InsertEmbedding(ctx, d2.ContentHash, 0, 0, "static-4", unitVec(1)))

	s := New(st, DefaultConfig())
	results, err := s.Search(ctx, "zones", Options{Limit: 10, QueryEmbedding: unitVec(2), Reranker: &unavailableReranker{}})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a.md", results[0].Document.Path)
}

func TestSearchMinScoreFiltersLowRankedResults(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	col := testCollection(t, st)

	_, err := st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "a.md", Title: "Zones", Body: "zones are memory regions"})
	require.NoError(t, err)

	s := New(st, DefaultConfig())
	results, err := s.Search(ctx, "zones", Options{Limit: 10, MinScore: 2.0})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchCollectionFilterRestrictsResults(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	colA := testCollection(t, st)
	colB, err := st.AddCollection(ctx, "other", t.TempDir(), "**/*.md")
	require.NoError(t, err)

	_, err = st.Upsert(ctx, store.UpsertInput{CollectionID: colA.ID, Path: "a.md", Body: "zones everywhere"})
	require.NoError(t, err)
	_, err = st.Upsert(ctx, store.UpsertInput{CollectionID: colB.ID, Path: "b.md", Body: "zones elsewhere"})
	require.NoError(t, err)

	s := New(st, DefaultConfig())
	results, err := s.Search(ctx, "zones", Options{Limit: 10, CollectionID: &colA.ID})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, colA.ID, results[0].Document.CollectionID)
}

func TestSearchExternalRerankCallbackBlendsScore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	col := testCollection(t, st)

	d1, err := st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "a.md", Body: "zones are memory regions"})
	require.NoError(t, err)
	require.NoError(t, st.InsertEmbedding(ctx, d1.ContentHash, 0, 0, "static-4", unitVec(0)))

	d2, err := st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "b.md", Body: "zones again here"})
	require.NoError(t, err)
	require.NoError(t, st.InsertEmbedding(ctx, d2.ContentHash, 0, 0, "static-4", unitVec(1)))

	s := New(st, DefaultConfig())
	called := false
	cb := func(query string, ids []string) (map[string]float64, error) {
		called = true
		out := make(map[string]float64, len(ids))
		for i, id := range ids {
			out[id] = 1.0 - float64(i)*0.1
		}
		return out, nil
	}

	results, err := s.Search(ctx, "zones", Options{Limit: 10, QueryEmbedding: unitVec(0), RerankCallback: cb})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NotEmpty(t, results)
}

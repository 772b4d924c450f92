package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelmd/memoir/internal/store"
)

// =============================================================================
// NoOpReranker unit tests
// =============================================================================

func TestNoOpReranker_Rerank_PreservesOrder(t *testing.T) {
	// Given: NoOpReranker and documents
	reranker := &NoOpReranker{}
	documents := []string{"doc1", "doc2", "doc3"}

	// When: reranking
	results, err := reranker.Rerank(context.Background(), "query", documents, 0)

	// Then: order is preserved with decreasing scores
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, "doc1", results[0].Document)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)

	assert.Equal(t, 1, results[1].Index)
	assert.Equal(t, "doc2", results[1].Document)
	assert.InDelta(t, 0.99, results[1].Score, 0.001)

	assert.Equal(t, 2, results[2].Index)
	assert.Equal(t, "doc3", results[2].Document)
	assert.InDelta(t, 0.98, results[2].Score, 0.001)
}

func TestNoOpReranker_Rerank_RespectsTopK(t *testing.T) {
	// Given: NoOpReranker and many documents
	reranker := &NoOpReranker{}
	documents := []string{"doc1", "doc2", "doc3", "doc4", "doc5"}

	// When: reranking with topK=3
	results, err := reranker.Rerank(context.Background(), "query", documents, 3)

	// Then: only top 3 returned
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, "doc1", results[0].Document)
	assert.Equal(t, "doc2", results[1].Document)
	assert.Equal(t, "doc3", results[2].Document)
}

func TestNoOpReranker_Rerank_TopKZeroReturnsAll(t *testing.T) {
	// Given: NoOpReranker
	reranker := &NoOpReranker{}
	documents := []string{"doc1", "doc2", "doc3"}

	// When: reranking with topK=0
	results, err := reranker.Rerank(context.Background(), "query", documents, 0)

	// Then: all documents returned
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestNoOpReranker_Rerank_TopKGreaterThanDocs(t *testing.T) {
	// Given: NoOpReranker with fewer docs than topK
	reranker := &NoOpReranker{}
	documents := []string{"doc1", "doc2"}

	// When: reranking with topK=10
	results, err := reranker.Rerank(context.Background(), "query", documents, 10)

	// Then: all documents returned (topK > len)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestNoOpReranker_Rerank_EmptyDocuments(t *testing.T) {
	// Given: NoOpReranker with no documents
	reranker := &NoOpReranker{}
	documents := []string{}

	// When: reranking empty list
	results, err := reranker.Rerank(context.Background(), "query", documents, 0)

	// Then: empty results, no error
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNoOpReranker_Available(t *testing.T) {
	// Given: NoOpReranker
	reranker := &NoOpReranker{}

	// When: checking availability
	available := reranker.Available(context.Background())

	// Then: always available
	assert.True(t, available)
}

func TestNoOpReranker_Close(t *testing.T) {
	// Given: NoOpReranker
	reranker := &NoOpReranker{}

	// When: closing
	err := reranker.Close()

	// Then: no error
	assert.NoError(t, err)
}

func TestNoOpReranker_InterfaceCompliance(t *testing.T) {
	// Verify NoOpReranker implements Reranker interface
	var _ Reranker = (*NoOpReranker)(nil)
}

// =============================================================================
// Wired Options.Reranker path
// =============================================================================

// unavailableReranker reports itself unavailable so Searcher.rerank falls
// back to keyword rerank without ever calling Rerank.
type unavailableReranker struct {
	rerankCalled bool
}

func (u *unavailableReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error) {
	u.rerankCalled = true
	return nil, nil
}

func (u *unavailableReranker) Available(_ context.Context) bool { return false }
func (u *unavailableReranker) Close() error                     { return nil }

func TestSearchWithRerankerUsesCrossEncoderScores(t *testing.T) {
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
	results, err := s.Search(ctx, "zones", Options{Limit: 10, QueryEmbedding: unitVec(0), Reranker: &NoOpReranker{}})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.InDelta(t, 1.0, results[0].Score, 0.001)
	assert.InDelta(t, 0.99, results[1].Score, 0.001)
}

func TestSearchWithUnavailableRerankerFallsBackToKeyword(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	col := testCollection(t, st)

	d1, err := st.Upsert(ctx, store.UpsertInput{CollectionID: col.ID, Path: "a.md", Body: "zones are memory regions"})
	require.NoError(t, err)
	require.NoError(t, st.InsertEmbedding(ctx, d1.ContentHash, 0, 0, "static-4", unitVec(0)))

	s := New(st, DefaultConfig())
	reranker := &unavailableReranker{}
	results, err := s.Search(ctx, "zones", Options{Limit: 10, QueryEmbedding: unitVec(0), Reranker: reranker})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, reranker.rerankCalled)
}

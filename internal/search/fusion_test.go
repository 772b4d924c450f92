package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelmd/memoir/internal/store"
)

func TestFuseEmptyBothSidesReturnsEmptySlice(t *testing.T) {
	f := NewRRFFusion()
	results := f.Fuse(nil, nil, 1, 1)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFuseTopResultScoresOne(t *testing.T) {
	f := NewRRFFusion()
	bm25 := []*store.BM25Result{{DocID: "a", Score: 0.9}, {DocID: "b", Score: 0.5}}
	vec := []*store.VectorResult{{ID: "a", Score: 0.8}, {ID: "c", Score: 0.6}}

	results := f.Fuse(bm25, vec, 1, 1)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].RRFScore, 1e-9)
	assert.True(t, results[0].InBothLists)
	assert.Equal(t, SourceHybrid, results[0].Source)
}

func TestFuseAppearingInBothListsAccumulatesRank(t *testing.T) {
	f := NewRRFFusionWithK(60)
	bm25 := []*store.BM25Result{{DocID: "x", Score: 0.1}, {DocID: "y", Score: 0.9}}
	vec := []*store.VectorResult{{ID: "y", Score: 0.1}}

	results := f.Fuse(bm25, vec, 1, 1)
	require.Len(t, results, 2)
	assert.Equal(t, "y", results[0].DocID, "y's combined rank contribution from both lists outscores x's bm25-only contribution")
}

func TestFuseTagsSourceByWhichListContributed(t *testing.T) {
	f := NewRRFFusion()
	bm25 := []*store.BM25Result{{DocID: "only-bm25", Score: 0.5}}
	vec := []*store.VectorResult{{ID: "only-vec", Score: 0.5}}

	results := f.Fuse(bm25, vec, 1, 1)
	bySource := make(map[string]ResultSource)
	for _, r := range results {
		bySource[r.DocID] = r.Source
	}
	assert.Equal(t, SourceBM25, bySource["only-bm25"])
	assert.Equal(t, SourceVec, bySource["only-vec"])
}

func TestFuseDeterministicOrderOnEqualScores(t *testing.T) {
	f := NewRRFFusion()
	bm25 := []*store.BM25Result{{DocID: "b", Score: 0.5}, {DocID: "a", Score: 0.5}}
	vec := []*store.VectorResult{{ID: "a", Score: 0.5}, {ID: "b", Score: 0.5}}

	r1 := f.Fuse(bm25, vec, 1, 1)
	r2 := f.Fuse(bm25, vec, 1, 1)
	require.Len(t, r1, 2)
	assert.Equal(t, r1[0].DocID, r2[0].DocID)
	assert.Equal(t, "a", r1[0].DocID, "equal-score ties break lexicographically by DocID")
}

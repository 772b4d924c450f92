// Package search implements the hybrid BM25 + vector retrieval pipeline:
// parallel retrieval, reciprocal rank fusion, and pluggable reranking.
package search

import (
	"sort"

	"github.com/kestrelmd/memoir/internal/store"
)

// DefaultRRFConstant is the standard RRF smoothing parameter (k=60, used
// empirically across Azure AI Search, OpenSearch, and similar systems).
const DefaultRRFConstant = 60

// ResultSource identifies which retrieval path produced a result.
type ResultSource string

const (
	SourceBM25   ResultSource = "bm25"
	SourceVec    ResultSource = "vec"
	SourceHybrid ResultSource = "hybrid"
)

// FusedResult is a single candidate after RRF fusion, before reranking.
type FusedResult struct {
	DocID       string
	RRFScore    float64
	BM25Score   float64
	BM25Rank    int
	VecScore    float64
	VecRank     int
	InBothLists bool
	Source      ResultSource
}

// RRFFusion combines BM25 and vector result lists via Reciprocal Rank Fusion.
//
// RRF_score(d) = Σ weight_i / (k + rank_i)
type RRFFusion struct {
	K int
}

// NewRRFFusion creates an RRF fusion instance with the default k=60.
func NewRRFFusion() *RRFFusion {
	return &RRFFusion{K: DefaultRRFConstant}
}

// NewRRFFusionWithK creates an RRF fusion instance with a custom k. k<=0
// falls back to the default.
func NewRRFFusionWithK(k int) *RRFFusion {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &RRFFusion{K: k}
}

// Fuse combines BM25 and vector results with weights w_bm25=w_vec=1 unless
// overridden, and returns them sorted by RRFScore (desc) → InBothLists
// (true first) → BM25Score (desc) → DocID (asc), normalized so the top
// result scores 1.0.
func (f *RRFFusion) Fuse(bm25 []*store.BM25Result, vec []*store.VectorResult, wBM25, wVec float64) []*FusedResult {
	if len(bm25) == 0 && len(vec) == 0 {
		return []*FusedResult{}
	}

	scores := make(map[string]*FusedResult, len(bm25)+len(vec))

	for rank, r := range bm25 {
		res := f.getOrCreate(scores, r.DocID)
		res.BM25Score = r.Score
		res.BM25Rank = rank + 1
		res.RRFScore += wBM25 / float64(f.K+rank+1)
	}

	for rank, r := range vec {
		res := f.getOrCreate(scores, r.ID)
		res.VecScore = float64(r.Score)
		res.VecRank = rank + 1
		res.RRFScore += wVec / float64(f.K+rank+1)
		if res.BM25Rank > 0 {
			res.InBothLists = true
		}
	}

	for _, res := range scores {
		switch {
		case res.BM25Rank > 0 && res.VecRank > 0:
			res.Source = SourceHybrid
		case res.BM25Rank > 0:
			res.Source = SourceBM25
		default:
			res.Source = SourceVec
		}
	}

	results := f.toSortedSlice(scores)
	f.normalize(results)
	return results
}

func (f *RRFFusion) getOrCreate(m map[string]*FusedResult, id string) *FusedResult {
	if r, ok := m[id]; ok {
		return r
	}
	r := &FusedResult{DocID: id}
	m[id] = r
	return r
}

func (f *RRFFusion) toSortedSlice(m map[string]*FusedResult) []*FusedResult {
	results := make([]*FusedResult, 0, len(m))
	for _, r := range m {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return f.compare(results[i], results[j])
	})
	return results
}

// compare orders a before b per the deterministic tie-break chain.
func (f *RRFFusion) compare(a, b *FusedResult) bool {
	if a.RRFScore != b.RRFScore {
		return a.RRFScore > b.RRFScore
	}
	if a.InBothLists != b.InBothLists {
		return a.InBothLists
	}
	if a.BM25Score != b.BM25Score {
		return a.BM25Score > b.BM25Score
	}
	return a.DocID < b.DocID
}

func (f *RRFFusion) normalize(results []*FusedResult) {
	if len(results) == 0 {
		return
	}
	maxScore := results[0].RRFScore
	if maxScore == 0 {
		return
	}
	for _, r := range results {
		r.RRFScore = r.RRFScore / maxScore
	}
}

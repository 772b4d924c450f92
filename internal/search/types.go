package search

import (
	"time"

	"github.com/kestrelmd/memoir/internal/store"
)

// Options configures a hybrid search query.
type Options struct {
	// Limit is the maximum number of results to return.
	Limit int

	// CollectionID restricts results to one collection. Nil searches all.
	CollectionID *int64

	// MinScore discards results scoring below this threshold after rerank.
	MinScore float64

	// QueryEmbedding is the caller-supplied query vector, used for ANN
	// retrieval and as the embedding-rerank fallback input. Nil skips ANN.
	QueryEmbedding []float32

	// RerankCallback, if set, is tried before the embedding/keyword rerank
	// fallbacks: blend = 0.4*rrf_score + 0.6*rerank_score.
	RerankCallback func(query string, docIDs []string) (map[string]float64, error)

	// Reranker is a cross-encoder scorer tried first, ahead of
	// RerankCallback, embedding similarity, and keyword overlap.
	Reranker Reranker
}

// Result is one ranked hit returned from a hybrid query.
type Result struct {
	Document  *store.Document
	Score     float64
	BM25Score float64
	VecScore  float64
	Source    ResultSource
}

// Config tunes the searcher's fusion and fetch behavior.
type Config struct {
	RRFConstant   int
	OverfetchMult int // multiplier applied to Limit for each retrieval side
	SearchTimeout time.Duration
}

// DefaultConfig returns the spec's defaults: k=60, 4x overfetch, 5s timeout.
func DefaultConfig() Config {
	return Config{
		RRFConstant:   DefaultRRFConstant,
		OverfetchMult: 4,
		SearchTimeout: 5 * time.Second,
	}
}

// Package embed provides the embedding backends used by the search engine:
// a deterministic zero-dependency static embedder and an HTTP-based Ollama
// embedder, both behind the same Embedder interface and the same
// single-flight lazy load wrapper.
package embed

import (
	"context"
	"fmt"
	"math"
)

// Batch sizing and retry defaults shared across embedder backends.
const (
	MinBatchSize     = 1
	MaxBatchSize     = 256
	DefaultBatchSize = 32
	DefaultMaxRetries = 3
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, sequentially.
	// A per-item failure yields a nil slice at that index rather than
	// aborting the whole batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedder can currently serve requests.
	Available(ctx context.Context) bool

	// Close releases resources held by the embedder.
	Close() error
}

// FormatQuery applies the on-disk query formatting contract. This string is
// part of the stored-vector contract: changing it invalidates every vector
// already on disk.
func FormatQuery(text string) string {
	return fmt.Sprintf("task: search result | query: %s", text)
}

// FormatDocument applies the on-disk document formatting contract.
func FormatDocument(text string) string {
	return fmt.Sprintf("title: none | text: %s", text)
}

// normalizeVector normalizes a vector to unit length in place semantics,
// returning a new slice (the zero vector is returned unchanged).
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

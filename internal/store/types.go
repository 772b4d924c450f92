// Package store owns the embedded database: schema lifecycle, content-addressed
// dedup, FTS synchronization, vector table management, and orphan GC. It is
// the only package that talks to SQLite directly.
package store

import (
	"context"
	"fmt"
	"time"
)

// Collection is a named, globbed root directory registered for indexing.
type Collection struct {
	ID        int64
	Name      string
	Root      string
	Glob      string
	CreatedAt time.Time
}

// Document is one indexed Markdown file. Documents are unique by
// (CollectionID, Path) and are soft-deleted (Active=false) rather than
// removed when their backing file disappears.
type Document struct {
	ID          string // stable 12-hex derived from sha256(content_hash|path)
	CollectionID int64
	Path        string // relative to the collection root
	Title       string
	Content     string // raw body, after front-matter is stripped
	ContentHash string // md5 of Content
	Frontmatter string // opaque YAML
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Content is the content-addressed body shared across documents with
// identical bodies. A row exists iff at least one active document
// references its hash.
type Content struct {
	ContentHash string
	Body        string
	Title       string
	UpdatedAt   time.Time
}

// ContentVectorRecord is the per-chunk embedding metadata row; the
// corresponding embedding lives in the Vector table under
// vec_key = "{content_hash}_{seq}".
type ContentVectorRecord struct {
	ContentHash string
	Seq         int
	Pos         int
	ModelName   string
	EmbeddedAt  time.Time
}

// EmbeddingStatus summarizes embedding coverage across active documents.
type EmbeddingStatus struct {
	Total    int
	Embedded int
	Pending  int
}

// UpsertInput is the argument to Store.Upsert.
type UpsertInput struct {
	CollectionID int64
	Path         string
	Title        string
	Body         string
	Frontmatter  string
}

// VectorResult is one result from a VectorStore nearest-neighbor search.
type VectorResult struct {
	ID       string // vec_key, "{content_hash}_{seq}"
	Distance float32
	Score    float32 // 1 - distance for cosine
}

// VectorStoreConfig configures the ANN backend.
type VectorStoreConfig struct {
	Dimensions     int
	Metric         string // "cos" or "l2"
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultVectorStoreConfig returns sensible defaults for the given dimension.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions:     dimensions,
		Metric:         "cos",
		M:              16,
		EfConstruction: 128,
		EfSearch:       20,
	}
}

// VectorStore provides approximate nearest-neighbor search over the Vector
// table (I4: dimension must match the configured embedding dimension).
type VectorStore interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []string) error
	AllIDs() []string
	Contains(id string) bool
	Count() int
	Dimensions() int

	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates a vector was presented with the wrong
// dimensionality for the currently configured embedding model.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// BM25Config configures the lexical index.
type BM25Config struct {
	// MinTokenLength is the minimum token length to index (default 1; CJK
	// single codepoints must still be searchable).
	MinTokenLength int
}

// DefaultBM25Config returns default BM25 configuration.
func DefaultBM25Config() BM25Config {
	return BM25Config{MinTokenLength: 1}
}

// BM25Result is a single lexical search hit.
type BM25Result struct {
	DocID string
	Score float64 // normalized to [0,1), higher is better
}

// IndexStats describes the lexical index's size.
type IndexStats struct {
	DocumentCount int
}

// BM25Index provides keyword search, pluggable behind search.bm25_backend.
type BM25Index interface {
	Index(ctx context.Context, docs []*Document) error
	Search(ctx context.Context, query string, limit int) ([]*BM25Result, error)
	Delete(ctx context.Context, docIDs []string) error
	AllIDs() ([]string, error)
	Stats() *IndexStats

	Save(path string) error
	Load(path string) error
	Close() error
}

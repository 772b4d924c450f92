package engine

import (
	"context"

	"github.com/kestrelmd/memoir/internal/embed"
	"github.com/kestrelmd/memoir/internal/search"
	"github.com/kestrelmd/memoir/internal/store"
)

// QueryOptions configures Engine.Search/VSearch/Query.
type QueryOptions struct {
	Collection string
	Limit      int
	MinScore   float64
	UseHybrid  bool
}

func (e *Engine) resolveCollectionID(ctx context.Context, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	col, err := e.GetCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, nil
	}
	return &col.ID, nil
}

// Search runs a lexical-only (or hybrid, if UseHybrid and an embedder is
// available) query over the indexed collections.
func (e *Engine) Search(ctx context.Context, query string, opts QueryOptions) ([]*search.Result, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}

	colID, err := e.resolveCollectionID(ctx, opts.Collection)
	if err != nil {
		return nil, err
	}

	searchOpts := search.Options{
		Limit:        opts.Limit,
		CollectionID: colID,
		MinScore:     opts.MinScore,
	}

	if opts.UseHybrid && e.emb != nil && e.emb.Available(ctx) {
		vec, err := e.emb.Embed(ctx, embed.FormatQuery(query))
		if err == nil {
			searchOpts.QueryEmbedding = vec
		}
	}

	return e.searcher.Search(ctx, query, searchOpts)
}

// VSearch runs an ANN-only query against a caller-supplied embedding.
func (e *Engine) VSearch(ctx context.Context, embedding []float32, opts QueryOptions) ([]*search.Result, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}

	colID, err := e.resolveCollectionID(ctx, opts.Collection)
	if err != nil {
		return nil, err
	}

	return e.searcher.Search(ctx, "", search.Options{
		Limit:          opts.Limit,
		CollectionID:   colID,
		MinScore:       opts.MinScore,
		QueryEmbedding: embedding,
	})
}

// Query runs the full hybrid pipeline, accepting an optional caller-supplied
// embedding alongside the text so BM25 and ANN retrieval both run.
func (e *Engine) Query(ctx context.Context, text string, embedding []float32, opts QueryOptions) ([]*search.Result, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}

	colID, err := e.resolveCollectionID(ctx, opts.Collection)
	if err != nil {
		return nil, err
	}

	return e.searcher.Search(ctx, text, search.Options{
		Limit:          opts.Limit,
		CollectionID:   colID,
		MinScore:       opts.MinScore,
		QueryEmbedding: embedding,
	})
}

// Get resolves path against every registered collection and returns the
// first active document found at that relative path.
func (e *Engine) Get(ctx context.Context, path string) (*store.Document, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}

	cols, err := e.st.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		doc, err := e.st.GetDocument(ctx, c.ID, path)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
	}
	return nil, nil
}

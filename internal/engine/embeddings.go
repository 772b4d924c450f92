package engine

import (
	"context"

	"github.com/kestrelmd/memoir/internal/embed"
	"github.com/kestrelmd/memoir/internal/store"
)

// GetHashesForEmbedding returns content hashes the current embedding model
// has not yet embedded.
func (e *Engine) GetHashesForEmbedding(ctx context.Context) ([]string, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.st.HashesForEmbedding(ctx, e.emb.ModelName())
}

// InsertEmbedding stores a vector for a content hash under the current
// embedding model.
func (e *Engine) InsertEmbedding(ctx context.Context, contentHash string, seq, pos int, vector []float32) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	return e.st.InsertEmbedding(ctx, contentHash, seq, pos, e.emb.ModelName(), vector)
}

// ClearAllEmbeddings drops every stored vector, e.g. before switching models.
func (e *Engine) ClearAllEmbeddings(ctx context.Context) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	return e.st.ClearAllEmbeddings(ctx)
}

// EmbedQuery embeds text using the query-side formatting contract.
func (e *Engine) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.emb.Embed(ctx, embed.FormatQuery(text))
}

// EmbedDocument embeds text using the document-side formatting contract.
func (e *Engine) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.emb.Embed(ctx, embed.FormatDocument(text))
}

// EmbedBatch embeds a batch of already-formatted texts.
func (e *Engine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.emb.EmbedBatch(ctx, texts)
}

// EmbedAll embeds every content hash pending embedding under the current
// model, inserting each vector as it completes. Embedding failures for one
// hash are recorded and do not stop the rest of the pass.
func (e *Engine) EmbedAll(ctx context.Context) (embedded int, failed int, err error) {
	if err := e.requireInitialized(); err != nil {
		return 0, 0, err
	}

	hashes, err := e.st.HashesForEmbedding(ctx, e.emb.ModelName())
	if err != nil {
		return 0, 0, err
	}

	for _, hash := range hashes {
		if ctx.Err() != nil {
			return embedded, failed, ctx.Err()
		}
		body, err := e.st.GetContentByHash(ctx, hash)
		if err != nil {
			failed++
			continue
		}
		vec, err := e.emb.Embed(ctx, embed.FormatDocument(body))
		if err != nil {
			failed++
			continue
		}
		if err := e.st.InsertEmbedding(ctx, hash, 0, 0, e.emb.ModelName(), vec); err != nil {
			failed++
			continue
		}
		embedded++
	}
	return embedded, failed, nil
}

// SetEmbeddingModel switches the active embedder to provider/model at dim
// dimensions, closing the previous one. The vector store's dimensionality
// is fixed at Initialize time, so a dimension change requires
// ClearAllEmbeddings and a fresh reindex to take effect.
func (e *Engine) SetEmbeddingModel(ctx context.Context, provider, model string, dim int) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.emb
	e.emb = embed.New(embed.Options{
		Provider:         provider,
		Model:            model,
		Dimensions:       dim,
		OllamaHost:       e.cfg.Embeddings.OllamaHost,
		ModelLoadTimeout: e.cfg.Embeddings.ModelLoadTimeout,
		CacheSize:        e.cfg.Embeddings.CacheSize,
	})
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// GetEmbeddingModel returns the active embedder's model identifier.
func (e *Engine) GetEmbeddingModel() string {
	if e.emb == nil {
		return ""
	}
	return e.emb.ModelName()
}

// GetEmbeddingDimension returns the active embedder's dimensionality.
func (e *Engine) GetEmbeddingDimension() int {
	if e.emb == nil {
		return 0
	}
	return e.emb.Dimensions()
}

// IsEmbeddingModelLoaded reports whether the embedder can currently serve
// requests without triggering a load.
func (e *Engine) IsEmbeddingModelLoaded(ctx context.Context) bool {
	if e.emb == nil {
		return false
	}
	inner := e.emb
	if c, ok := inner.(*embed.CachedEmbedder); ok {
		inner = c.Inner()
	}
	if l, ok := inner.(*embed.LazyEmbedder); ok && l.RequireLoaded() != nil {
		return false
	}
	return inner.Available(ctx)
}

// IsRerankModelLoaded always reports false: no cross-encoder reranker is
// wired into this build, so rerank always falls back to the embedding or
// keyword-overlap strategies the searcher already implements.
func (e *Engine) IsRerankModelLoaded(context.Context) bool {
	return false
}

// EmbeddingStatus summarizes embedding coverage for the current model.
func (e *Engine) EmbeddingStatus(ctx context.Context) (*store.EmbeddingStatus, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.st.EmbeddingStatus(ctx, e.emb.ModelName())
}

// PreloadEmbeddingModel forces the embedder to load now rather than on
// first use, surfacing ModelUnavailable/ModelLoadTimeout errors eagerly.
func (e *Engine) PreloadEmbeddingModel(ctx context.Context) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	_, err := e.emb.Embed(ctx, embed.FormatQuery("warmup"))
	return err
}

// PreloadRerankModel is a no-op: no cross-encoder reranker is wired into
// this build.
func (e *Engine) PreloadRerankModel(context.Context) error {
	return nil
}

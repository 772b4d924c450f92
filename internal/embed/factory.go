package embed

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Options configures the embedder a caller wants built.
type Options struct {
	Provider   string // "static" or "ollama"
	Model      string
	Dimensions int
	OllamaHost string

	ModelLoadTimeout time.Duration
	CacheSize        int
}

// New builds the configured embedder, wrapped with an LRU cache and lazy
// single-flight loading. The static provider constructs synchronously (no
// network, no model file) but is still routed through LazyEmbedder so
// callers get a uniform lifecycle regardless of provider.
func New(opts Options) Embedder {
	var loader Loader

	switch strings.ToLower(opts.Provider) {
	case "", "static":
		dims := opts.Dimensions
		loader = func(_ context.Context) (Embedder, error) {
			return NewStaticEmbedder(dims), nil
		}
	case "ollama":
		loader = func(ctx context.Context) (Embedder, error) {
			cfg := DefaultOllamaConfig()
			if opts.OllamaHost != "" {
				cfg.Host = opts.OllamaHost
			}
			if opts.Model != "" {
				cfg.Model = opts.Model
			}
			cfg.Dimensions = opts.Dimensions
			return NewOllamaEmbedder(ctx, cfg)
		}
	default:
		loader = func(_ context.Context) (Embedder, error) {
			return nil, fmt.Errorf("unknown embeddings provider %q", opts.Provider)
		}
	}

	lazy := NewLazyEmbedder(loader, opts.ModelLoadTimeout)

	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultEmbeddingCacheSize
	}
	return NewCachedEmbedder(lazy, cacheSize)
}

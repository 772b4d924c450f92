package embed

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	memoirerrors "github.com/kestrelmd/memoir/internal/errors"
)

// Loader produces the underlying Embedder on first use. After a successful
// load it is not called again unless Unload is called; a failed load is
// attempted again on the next use.
type Loader func(ctx context.Context) (Embedder, error)

// LazyEmbedder defers construction of its underlying Embedder until first
// use, deduplicating concurrent callers with a singleflight.Group so only
// one load ever runs at a time. This is the facade every provider is routed
// through: static and Ollama embedders alike are wrapped so model lifecycle
// (ModelUnavailable / ModelLoadTimeout / EmbeddingContextUnavailable) is
// handled uniformly regardless of backend.
type LazyEmbedder struct {
	load        Loader
	loadTimeout time.Duration

	group singleflight.Group
	mu    sync.RWMutex
	inner Embedder
}

var _ Embedder = (*LazyEmbedder)(nil)

// NewLazyEmbedder wraps load behind single-flight lazy initialization.
// loadTimeout <= 0 uses a 5 minute default, matching the facade-level load
// timeout.
func NewLazyEmbedder(load Loader, loadTimeout time.Duration) *LazyEmbedder {
	if loadTimeout <= 0 {
		loadTimeout = 5 * time.Minute
	}
	return &LazyEmbedder{load: load, loadTimeout: loadTimeout}
}

// ensure returns the loaded embedder, triggering exactly one concurrent load.
func (l *LazyEmbedder) ensure(ctx context.Context) (Embedder, error) {
	l.mu.RLock()
	if l.inner != nil {
		defer l.mu.RUnlock()
		return l.inner, nil
	}
	l.mu.RUnlock()

	v, err, _ := l.group.Do("load", func() (any, error) {
		l.mu.RLock()
		if l.inner != nil {
			defer l.mu.RUnlock()
			return l.inner, nil
		}
		l.mu.RUnlock()

		loadCtx, cancel := context.WithTimeout(ctx, l.loadTimeout)
		defer cancel()

		type result struct {
			e   Embedder
			err error
		}
		resultCh := make(chan result, 1)
		go func() {
			e, err := l.load(loadCtx)
			resultCh <- result{e, err}
		}()

		select {
		case <-loadCtx.Done():
			return nil, memoirerrors.Wrap(memoirerrors.KindModelLoadTimeout, "model load exceeded timeout", loadCtx.Err())
		case r := <-resultCh:
			if r.err != nil {
				return nil, memoirerrors.Wrap(memoirerrors.KindModelUnavailable, "failed to load embedding model", r.err)
			}
			l.mu.Lock()
			l.inner = r.e
			l.mu.Unlock()
			return r.e, nil
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(Embedder), nil
}

func (l *LazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, text)
}

func (l *LazyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return e.EmbedBatch(ctx, texts)
}

// Dimensions returns 0 if the embedder has not yet been loaded. Callers
// that need dimensions before the first embed should call Warm first.
func (l *LazyEmbedder) Dimensions() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.inner == nil {
		return 0
	}
	return l.inner.Dimensions()
}

func (l *LazyEmbedder) ModelName() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.inner == nil {
		return ""
	}
	return l.inner.ModelName()
}

func (l *LazyEmbedder) Available(ctx context.Context) bool {
	e, err := l.ensure(ctx)
	if err != nil {
		return false
	}
	return e.Available(ctx)
}

// Warm triggers the load eagerly, surfacing ModelUnavailable/ModelLoadTimeout
// at a time of the caller's choosing rather than on first Embed call.
func (l *LazyEmbedder) Warm(ctx context.Context) error {
	_, err := l.ensure(ctx)
	return err
}

// Unload disposes the underlying embedder so the next call reloads it.
// The shared singleflight.Group handle is retained.
func (l *LazyEmbedder) Unload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner == nil {
		return nil
	}
	err := l.inner.Close()
	l.inner = nil
	return err
}

func (l *LazyEmbedder) Close() error {
	return l.Unload()
}

// RequireLoaded returns EmbeddingContextUnavailable if the embedder has not
// been loaded yet. Used by callers that must not trigger an implicit load
// (e.g. a status check).
func (l *LazyEmbedder) RequireLoaded() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.inner == nil {
		return memoirerrors.New(memoirerrors.KindEmbeddingContextUnavailable, "embedding model has not been loaded")
	}
	return nil
}

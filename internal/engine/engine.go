// Package engine composes the store, indexer, searcher, embedder, watcher,
// and memoir facade behind the single entry point the CLI and any future
// host process talks to (C8).
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/kestrelmd/memoir/internal/config"
	"github.com/kestrelmd/memoir/internal/embed"
	"github.com/kestrelmd/memoir/internal/index"
	"github.com/kestrelmd/memoir/internal/memoir"
	"github.com/kestrelmd/memoir/internal/search"
	"github.com/kestrelmd/memoir/internal/store"
	"github.com/kestrelmd/memoir/internal/watcher"
)

// Engine is the facade over every component: initialize opens the store and
// is idempotent; close stops the watcher, unloads the embedder, and closes
// the database, in that order, with each step running even if an earlier
// one failed.
type Engine struct {
	cfg        *config.Config
	dataDir    string
	memoirRoot string

	mu          sync.Mutex
	initialized bool
	closed      bool

	st       *store.Store
	ix       *index.Indexer
	searcher *search.Searcher
	emb      embed.Embedder
	watch    *watcher.Watcher
	mem      *memoir.Memoir
}

// New returns an unopened Engine. Call Initialize before using it.
func New(cfg *config.Config, dataDir, memoirRoot string) *Engine {
	return &Engine{cfg: cfg, dataDir: dataDir, memoirRoot: memoirRoot}
}

// Initialize opens the store and every component layered on top of it.
// Calling Initialize again after success is a no-op.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}

	st, err := store.Open(ctx, store.Options{
		DataDir:     e.dataDir,
		BM25Backend: e.cfg.Search.BM25Backend,
		Dimensions:  e.cfg.Embeddings.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	e.st = st
	e.ix = index.New(st)
	e.searcher = search.New(st, search.Config{
		RRFConstant:   e.cfg.Search.RRFConstant,
		OverfetchMult: e.cfg.Search.OverfetchMultiplier,
	})
	e.emb = embed.New(embed.Options{
		Provider:         e.cfg.Embeddings.Provider,
		Model:            e.cfg.Embeddings.Model,
		Dimensions:       e.cfg.Embeddings.Dimensions,
		OllamaHost:       e.cfg.Embeddings.OllamaHost,
		ModelLoadTimeout: e.cfg.Embeddings.ModelLoadTimeout,
		CacheSize:        e.cfg.Embeddings.CacheSize,
	})
	e.watch = watcher.New(st, e.ix, e.emb, watcher.Options{
		DebounceWindow: e.cfg.Watcher.DebounceWindow,
		ScanInterval:   e.cfg.Watcher.ScanInterval,
	})

	mem, err := memoir.New(ctx, st, e.memoirRoot)
	if err != nil {
		return fmt.Errorf("open memoir: %w", err)
	}
	e.mem = mem

	e.initialized = true
	return nil
}

// Close stops the watcher, unloads the embedder, and closes the database,
// in that order. Each step runs even if an earlier one returned an error;
// the first error encountered is returned. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if e.watch != nil {
		e.watch.Stop()
	}
	if e.emb != nil {
		record(e.emb.Close())
	}
	if e.st != nil {
		record(e.st.Close())
	}

	return firstErr
}

func (e *Engine) requireInitialized() error {
	if !e.initialized {
		return fmt.Errorf("engine not initialized: call Initialize first")
	}
	return nil
}

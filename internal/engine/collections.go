package engine

import (
	"context"
	"os"

	memerrors "github.com/kestrelmd/memoir/internal/errors"
	"github.com/kestrelmd/memoir/internal/index"
	"github.com/kestrelmd/memoir/internal/store"
)

// AddCollection registers name as a collection rooted at path, asserting
// the path exists before delegating to the store's idempotent upsert.
func (e *Engine) AddCollection(ctx context.Context, name, path, glob string) (*store.Collection, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	if glob == "" {
		glob = "**/*.md"
	}

	if _, err := os.Stat(path); err != nil {
		return nil, memerrors.Wrap(memerrors.KindCollectionPathMissing, "collection root does not exist: "+path, err)
	}

	return e.st.AddCollection(ctx, name, path, glob)
}

// ListCollections returns every registered collection.
func (e *Engine) ListCollections(ctx context.Context) ([]*store.Collection, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.st.ListCollections(ctx)
}

// GetCollection returns the collection with the given name, or nil.
func (e *Engine) GetCollection(ctx context.Context, name string) (*store.Collection, error) {
	cols, err := e.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

// RemoveCollection deregisters a collection; its documents cascade via the
// store's foreign key.
func (e *Engine) RemoveCollection(ctx context.Context, name string) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	return e.st.RemoveCollection(ctx, name)
}

// Reindex walks every registered collection and reconciles it against the
// store. incremental is accepted for API parity with the full reindex but
// has no distinct effect: Upsert is already a cheap no-op for files whose
// content hash has not changed, so a full walk costs little more than a
// selective one.
func (e *Engine) Reindex(ctx context.Context, incremental bool) (map[string]*index.Result, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	_ = incremental
	return e.ix.IndexAll(ctx)
}

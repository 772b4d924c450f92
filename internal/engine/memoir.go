package engine

import (
	"context"

	"github.com/kestrelmd/memoir/internal/memoir"
)

// MemSet writes a Memoir entry. See memoir.Memoir.Set.
func (e *Engine) MemSet(ctx context.Context, key, body string, meta map[string]any) (*memoir.Entry, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.mem.Set(ctx, key, body, meta)
}

// MemGet reads a Memoir entry, or nil if absent.
func (e *Engine) MemGet(ctx context.Context, key string) (*memoir.Entry, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.mem.Get(ctx, key)
}

// MemDelete removes a Memoir entry.
func (e *Engine) MemDelete(ctx context.Context, key string) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	return e.mem.Delete(ctx, key)
}

// MemList returns the flat key -> node map under prefix.
func (e *Engine) MemList(prefix string) (map[string]memoir.Node, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.mem.List(prefix)
}

// MemListTree returns the nested ordered tree under prefix.
func (e *Engine) MemListTree(prefix string) (*memoir.TreeNode, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.mem.ListTree(prefix)
}

// MemTreeForPrompt renders the Markdown outline contract callers pattern-
// match on.
func (e *Engine) MemTreeForPrompt(prefix string) (string, error) {
	if err := e.requireInitialized(); err != nil {
		return "", err
	}
	return e.mem.TreeForPrompt(prefix)
}

// MemMemoriesByLevel returns file entries exactly n segments under prefix.
func (e *Engine) MemMemoriesByLevel(n int, prefix string) (map[string]memoir.Node, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.mem.MemoriesByLevel(n, prefix)
}

// MemSimpleTree renders a terse outline under prefix.
func (e *Engine) MemSimpleTree(prefix string) (string, error) {
	if err := e.requireInitialized(); err != nil {
		return "", err
	}
	return e.mem.SimpleTree(prefix)
}

// MemSearch runs Memoir's half-life decayed search.
func (e *Engine) MemSearch(ctx context.Context, query string, opts memoir.SearchOptions) ([]*memoir.SearchHit, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.mem.Search(ctx, e.searcher, query, opts)
}

// MemDefineZone registers or replaces a zone.
func (e *Engine) MemDefineZone(z memoir.Zone) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	e.mem.DefineZone(z)
	return nil
}

// MemZoneStats reports occupancy for a defined zone.
func (e *Engine) MemZoneStats(name string) (*memoir.ZoneStatsResult, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.mem.ZoneStats(name)
}

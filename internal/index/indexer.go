// Package index walks collection roots on disk and reconciles them against
// the store: new and changed files are upserted, files no longer present are
// soft-deleted.
package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrelmd/memoir/internal/store"
)

// Result reports what a single IndexCollection pass did.
type Result struct {
	Indexed int
	Skipped int
	Failed  int
	Errors  []error
}

// Indexer walks collection roots and keeps the store's document set in sync
// with the files on disk.
type Indexer struct {
	st *store.Store
}

// New returns an Indexer backed by st.
func New(st *store.Store) *Indexer {
	return &Indexer{st: st}
}

// IndexCollection walks col.Root for .md files, upserts each one, and
// soft-deletes any previously active document whose path was not seen during
// the walk. A glob engine is not implemented: only the "**/*.md" convention
// (every .md file under the root, recursively) is supported, matching the
// only pattern actually used in practice.
func (ix *Indexer) IndexCollection(ctx context.Context, col *store.Collection) (*Result, error) {
	res := &Result{}
	seen := make(map[string]bool)

	err := filepath.WalkDir(col.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("walk %s: %w", path, err))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		rel, err := filepath.Rel(col.Root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if err := ix.indexFile(ctx, col, rel, path); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", rel, err))
			return nil
		}

		seen[rel] = true
		res.Indexed++
		return nil
	})
	if err != nil {
		return res, err
	}

	removed, err := ix.reconcileDeletions(ctx, col, seen)
	if err != nil {
		return res, err
	}
	res.Skipped += removed

	return res, nil
}

func (ix *Indexer) indexFile(ctx context.Context, col *store.Collection, relPath, absPath string) error {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	meta, body := ParseFrontMatter(string(raw))

	stem := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	title := TitleFromFrontMatter(meta, stem)

	frontmatterRaw, err := marshalFrontmatter(meta)
	if err != nil {
		return fmt.Errorf("marshal frontmatter: %w", err)
	}

	_, err = ix.st.Upsert(ctx, store.UpsertInput{
		CollectionID: col.ID,
		Path:         relPath,
		Title:        title,
		Body:         body,
		Frontmatter:  frontmatterRaw,
	})
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// reconcileDeletions removes any document the store considers active but
// that was not observed during the walk, returning the count removed.
func (ix *Indexer) reconcileDeletions(ctx context.Context, col *store.Collection, seen map[string]bool) (int, error) {
	activePaths, err := ix.st.ListActivePaths(ctx, col.ID)
	if err != nil {
		return 0, fmt.Errorf("list active paths: %w", err)
	}

	removed := 0
	for _, p := range activePaths {
		if seen[p] {
			continue
		}
		if err := ix.st.Remove(ctx, col.ID, p); err != nil {
			return removed, fmt.Errorf("remove %s: %w", p, err)
		}
		removed++
	}
	return removed, nil
}

// IndexAll runs IndexCollection over every registered collection, continuing
// past a collection-level failure so one bad root doesn't block the rest.
func (ix *Indexer) IndexAll(ctx context.Context) (map[string]*Result, error) {
	cols, err := ix.st.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	out := make(map[string]*Result, len(cols))
	for _, col := range cols {
		res, err := ix.IndexCollection(ctx, col)
		if err != nil {
			res = &Result{Errors: []error{err}}
		}
		out[col.Name] = res
	}
	return out, nil
}

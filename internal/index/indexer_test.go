package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelmd/memoir/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(context.Background(), store.Options{DataDir: dir, BM25Backend: "sqlite", Dimensions: 8})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestIndexCollectionWalksMarkdownFilesOnly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "a.md", "hello world")
	writeFile(t, root, "notes/b.md", "nested note")
	writeFile(t, root, "ignore.txt", "not markdown")

	col, err := st.AddCollection(ctx, "notes", root, "**/*.md")
	require.NoError(t, err)

	ix := New(st)
	res, err := ix.IndexCollection(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 0, res.Failed)

	doc, err := st.GetDocument(ctx, col.ID, "a.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "a", doc.Title)

	nested, err := st.GetDocument(ctx, col.ID, "notes/b.md")
	require.NoError(t, err)
	require.NotNil(t, nested)
}

func TestIndexCollectionTitleFromFrontMatter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "a.md", "---\ntitle: Custom Title\n---\nbody text\n")

	col, err := st.AddCollection(ctx, "notes", root, "**/*.md")
	require.NoError(t, err)

	ix := New(st)
	_, err = ix.IndexCollection(ctx, col)
	require.NoError(t, err)

	doc, err := st.GetDocument(ctx, col.ID, "a.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Custom Title", doc.Title)
	assert.Equal(t, "body text\n", doc.Content)
}

func TestIndexCollectionReconcilesSoftDeletes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "a.md", "first")
	writeFile(t, root, "b.md", "second")

	col, err := st.AddCollection(ctx, "notes", root, "**/*.md")
	require.NoError(t, err)

	ix := New(st)
	res, err := ix.IndexCollection(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Indexed)

	require.NoError(t, os.Remove(filepath.Join(root, "b.md")))

	res, err = ix.IndexCollection(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Indexed)
	assert.Equal(t, 1, res.Skipped)

	doc, err := st.GetDocument(ctx, col.ID, "b.md")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestIndexCollectionIgnoresDirectoriesNamedLikeMarkdownFiles(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "good.md", "fine content")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bad.md"), 0755))
	writeFile(t, root, "bad.md/child.md", "nested under a dir named bad.md")

	col, err := st.AddCollection(ctx, "notes", root, "**/*.md")
	require.NoError(t, err)

	ix := New(st)
	res, err := ix.IndexCollection(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 0, res.Failed)

	doc, err := st.GetDocument(ctx, col.ID, "good.md")
	require.NoError(t, err)
	require.NotNil(t, doc)

	nested, err := st.GetDocument(ctx, col.ID, "bad.md/child.md")
	require.NoError(t, err)
	require.NotNil(t, nested)
}

func TestIndexAllCoversEveryCollection(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rootA := t.TempDir()
	writeFile(t, rootA, "a.md", "alpha content")
	colA, err := st.AddCollection(ctx, "alpha", rootA, "**/*.md")
	require.NoError(t, err)

	rootB := t.TempDir()
	writeFile(t, rootB, "b.md", "beta content")
	_, err = st.AddCollection(ctx, "beta", rootB, "**/*.md")
	require.NoError(t, err)

	ix := New(st)
	results, err := ix.IndexAll(ctx)
	require.NoError(t, err)
	require.Contains(t, results, "alpha")
	require.Contains(t, results, "beta")
	assert.Equal(t, 1, results["alpha"].Indexed)
	assert.Equal(t, 1, results["beta"].Indexed)

	doc, err := st.GetDocument(ctx, colA.ID, "a.md")
	require.NoError(t, err)
	require.NotNil(t, doc)
}

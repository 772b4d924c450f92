package memoir

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	memerrors "github.com/kestrelmd/memoir/internal/errors"
	"github.com/kestrelmd/memoir/internal/index"
	"github.com/kestrelmd/memoir/internal/store"
)

// collectionName is the name under which Memoir registers its backing root
// with the store, via the same AddCollection path the collections registry
// uses for every other root.
const collectionName = "memoir"

// Memoir is the tree-structured memory facade over a Markdown-file root.
// Every key maps bijectively to a file path under root; writes are
// serialized per key and reflected into the store immediately so search and
// reindex see a consistent view without waiting for the watcher.
type Memoir struct {
	st  *store.Store
	col *store.Collection
	ix  *index.Indexer

	root string

	zoneMu sync.Mutex
	zones  map[string]*Zone

	keyMu   sync.Mutex
	pending map[string]chan struct{}
}

// New opens (or creates) the memory root and registers it as a collection
// named "memoir" in st, reusing the idempotent upsert-by-name behavior
// AddCollection already gives every collection.
func New(ctx context.Context, st *store.Store, root string) (*Memoir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}

	col, err := st.AddCollection(ctx, collectionName, abs, "**/*.md")
	if err != nil {
		return nil, err
	}

	return &Memoir{
		st:      st,
		col:     col,
		ix:      index.New(st),
		root:    abs,
		zones:   make(map[string]*Zone),
		pending: make(map[string]chan struct{}),
	}, nil
}

// acquire blocks until no other operation is in flight for key, then
// registers key as in flight. The returned func releases it.
func (m *Memoir) acquire(key string) func() {
	m.keyMu.Lock()
	for {
		ch, ok := m.pending[key]
		if !ok {
			break
		}
		m.keyMu.Unlock()
		<-ch
		m.keyMu.Lock()
	}
	done := make(chan struct{})
	m.pending[key] = done
	m.keyMu.Unlock()

	return func() {
		m.keyMu.Lock()
		delete(m.pending, key)
		m.keyMu.Unlock()
		close(done)
	}
}

// Set writes body and meta to key, enforcing any matching zone's quotas and
// merging metadata per the documented precedence. Only one Set or Delete for
// a given key runs at a time; concurrent callers queue behind each other.
func (m *Memoir) Set(ctx context.Context, key string, body string, meta map[string]any) (*Entry, error) {
	release := m.acquire(key)
	defer release()

	relPath, err := keyToRelPath(key)
	if err != nil {
		return nil, err
	}
	absPath, err := resolveUnderRoot(m.root, relPath)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(absPath)
	isNew := os.IsNotExist(statErr)

	zone := m.zoneFor(key)
	if err := m.enforceZone(zone, key, isNew); err != nil {
		return nil, err
	}

	var existing map[string]any
	if !isNew {
		raw, err := os.ReadFile(absPath)
		if err != nil {
			return nil, memerrors.Wrap(memerrors.KindIndexIoFailure, "read existing entry", err)
		}
		existing, _ = index.ParseFrontMatter(string(raw))
	}

	cleaned := applyZoneDefaults(cleanMetadata(meta), zone)
	now := time.Now().UTC().Format(time.RFC3339)
	final := mergeFrontmatter(key, existing, cleaned, now)

	rendered, err := renderEntry(final, body)
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(absPath, rendered); err != nil {
		return nil, memerrors.Wrap(memerrors.KindIndexIoFailure, "write entry", err)
	}

	title := index.TitleFromFrontMatter(final, stemOf(relPath))
	frontmatterRaw, err := renderFrontmatterOnly(final)
	if err != nil {
		return nil, err
	}

	if _, err := m.st.Upsert(ctx, store.UpsertInput{
		CollectionID: m.col.ID,
		Path:         relPath,
		Title:        title,
		Body:         body,
		Frontmatter:  frontmatterRaw,
	}); err != nil {
		return nil, err
	}

	updatedAt, _ := time.Parse(time.RFC3339, now)
	return &Entry{
		Key:       key,
		Body:      body,
		Metadata:  final,
		RelPath:   relPath,
		AbsPath:   absPath,
		UpdatedAt: updatedAt,
	}, nil
}

// Get reads the entry at key, or nil if it does not exist.
func (m *Memoir) Get(ctx context.Context, key string) (*Entry, error) {
	release := m.acquire(key)
	defer release()

	relPath, err := keyToRelPath(key)
	if err != nil {
		return nil, err
	}
	absPath, err := resolveUnderRoot(m.root, relPath)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, memerrors.Wrap(memerrors.KindIndexIoFailure, "read entry", err)
	}

	meta, body := index.ParseFrontMatter(string(raw))

	var updatedAt time.Time
	if ua, ok := meta["updated_at"].(string); ok {
		updatedAt, _ = time.Parse(time.RFC3339, ua)
	}

	return &Entry{
		Key:       key,
		Body:      body,
		Metadata:  meta,
		RelPath:   relPath,
		AbsPath:   absPath,
		UpdatedAt: updatedAt,
	}, nil
}

// Delete removes the entry at key, trying the bijective path first and
// falling back to looser matching for keys written under a prior scheme.
// Deleting a key that does not exist under any of the fallbacks is a no-op.
func (m *Memoir) Delete(ctx context.Context, key string) error {
	release := m.acquire(key)
	defer release()

	absPath, relPath, err := m.resolveForDelete(key)
	if err != nil {
		return err
	}
	if absPath == "" {
		return nil
	}

	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return memerrors.Wrap(memerrors.KindIndexIoFailure, "delete entry", err)
	}

	return m.st.Remove(ctx, m.col.ID, relPath)
}

func writeAtomic(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func stemOf(relPath string) string {
	base := filepath.Base(relPath)
	return base[:len(base)-len(filepath.Ext(base))]
}

func readFileString(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

package store

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	memoirerrors "github.com/kestrelmd/memoir/internal/errors"
)

// Store is the embedded database: collections, documents, content-addressed
// bodies, embedding bookkeeping, the lexical index, and the vector index.
// It owns the upsert protocol (I1-I5) and the bm25/vec search primitives.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	dir string

	bm25    BM25Index
	vectors VectorStore
	dims    int

	closed bool
}

// Options configures Store construction.
type Options struct {
	DataDir        string
	BM25Backend    string // "sqlite" or "bleve"
	Dimensions     int
	VectorMetric   string
}

// Open creates or opens the store's on-disk state under opts.DataDir.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(opts.DataDir, "memoir.db")
	dsn := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := initMetadataSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	bm25Path := filepath.Join(opts.DataDir, "bm25")
	bm25Index, err := NewBM25IndexWithBackend(bm25Path, DefaultBM25Config(), opts.BM25Backend)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open lexical index: %w", err)
	}

	vecConfig := DefaultVectorStoreConfig(opts.Dimensions)
	if opts.VectorMetric != "" {
		vecConfig.Metric = opts.VectorMetric
	}
	vectorStore, err := NewHNSWStore(vecConfig)
	if err != nil {
		_ = db.Close()
		_ = bm25Index.Close()
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	vecPath := vectorIndexPath(opts.DataDir)
	if fileExists(vecPath) {
		if err := vectorStore.Load(vecPath); err != nil {
			_ = db.Close()
			_ = bm25Index.Close()
			_ = vectorStore.Close()
			return nil, fmt.Errorf("failed to load vector store: %w", err)
		}
	}

	return &Store{
		db:      db,
		dir:     opts.DataDir,
		bm25:    bm25Index,
		vectors: vectorStore,
		dims:    opts.Dimensions,
	}, nil
}

func vectorIndexPath(dataDir string) string {
	return filepath.Join(dataDir, "vectors.hnsw")
}

func initMetadataSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL UNIQUE,
		root       TEXT NOT NULL,
		glob       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS documents (
		id            TEXT PRIMARY KEY,
		collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		path          TEXT NOT NULL,
		title         TEXT,
		content_hash  TEXT NOT NULL,
		frontmatter   TEXT,
		active        INTEGER NOT NULL DEFAULT 1,
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (collection_id, path)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);

	CREATE TABLE IF NOT EXISTS content (
		content_hash TEXT PRIMARY KEY,
		body         TEXT NOT NULL,
		title        TEXT,
		updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS content_vector (
		content_hash TEXT NOT NULL,
		seq          INTEGER NOT NULL,
		pos          INTEGER NOT NULL DEFAULT 0,
		model_name   TEXT NOT NULL,
		embedded_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (content_hash, seq)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// ComputeContentHash returns the md5 hex digest of a document body.
func ComputeContentHash(body string) string {
	sum := md5.Sum([]byte(body))
	return hex.EncodeToString(sum[:])
}

// ComputeDocumentID derives a stable 12-hex document id from its content
// hash and path, so the same path re-created with the same body reuses its
// old id while a hash change on the same path produces a new one.
func ComputeDocumentID(contentHash, path string) string {
	sum := sha256.Sum256([]byte(contentHash + "|" + path))
	return hex.EncodeToString(sum[:])[:12]
}

// VecKey builds the vector-store key for a given content chunk.
func VecKey(contentHash string, seq int) string {
	return fmt.Sprintf("%s_%d", contentHash, seq)
}

func (s *Store) withWriteLock(ctx context.Context, f func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return memoirerrors.New(memoirerrors.KindDbBusy, "store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := f(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// Upsert implements the six-step upsert protocol: hash the body, derive the
// document id, detect a content-hash change against the prior row, write the
// document row, orphan-GC the old content/vector rows when nothing else
// references them, write the content row, and re-sync the lexical index
// explicitly.
func (s *Store) Upsert(ctx context.Context, in UpsertInput) (*Document, error) {
	hash := ComputeContentHash(in.Body)
	id := ComputeDocumentID(hash, in.Path)
	now := time.Now().UTC()

	var oldHash string
	var hadPrior bool

	err := s.withWriteLock(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT content_hash FROM documents WHERE collection_id = ? AND path = ?`,
			in.CollectionID, in.Path)
		switch err := row.Scan(&oldHash); err {
		case nil:
			hadPrior = true
		case sql.ErrNoRows:
			hadPrior = false
		default:
			return fmt.Errorf("failed to look up existing document: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, collection_id, path, title, content_hash, frontmatter, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT (collection_id, path) DO UPDATE SET
				id = excluded.id,
				title = excluded.title,
				content_hash = excluded.content_hash,
				frontmatter = excluded.frontmatter,
				active = 1,
				updated_at = excluded.updated_at
		`, id, in.CollectionID, in.Path, in.Title, hash, in.Frontmatter, now, now)
		if err != nil {
			return fmt.Errorf("failed to upsert document: %w", err)
		}

		if hadPrior && oldHash != hash {
			if err := s.orphanGCLocked(ctx, tx, oldHash); err != nil {
				return fmt.Errorf("failed to garbage collect orphaned content: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO content (content_hash, body, title, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (content_hash) DO UPDATE SET
				body = excluded.body,
				title = excluded.title,
				updated_at = excluded.updated_at
		`, hash, in.Body, in.Title, now)
		if err != nil {
			return fmt.Errorf("failed to upsert content: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ID:           id,
		CollectionID: in.CollectionID,
		Path:         in.Path,
		Title:        in.Title,
		Content:      in.Body,
		ContentHash:  hash,
		Frontmatter:  in.Frontmatter,
		Active:       true,
		UpdatedAt:    now,
	}

	// The lexical index is re-synced explicitly rather than relying on
	// SQLite triggers, since fts_content lives in a separate connection.
	if err := s.bm25.Index(ctx, []*Document{doc}); err != nil {
		return nil, fmt.Errorf("failed to sync lexical index: %w", err)
	}

	return doc, nil
}

// orphanGCLocked removes the content row and any embeddings for oldHash if
// no other active document still references it. Must be called with s.mu
// held and inside the same transaction as the document update that is about
// to change the reference.
func (s *Store) orphanGCLocked(ctx context.Context, tx *sql.Tx, oldHash string) error {
	var refCount int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE content_hash = ? AND active = 1`,
		oldHash).Scan(&refCount); err != nil {
		return fmt.Errorf("failed to count references: %w", err)
	}
	if refCount > 0 {
		return nil
	}

	rows, err := tx.QueryContext(ctx, `SELECT seq FROM content_vector WHERE content_hash = ?`, oldHash)
	if err != nil {
		return fmt.Errorf("failed to list embeddings for orphaned content: %w", err)
	}
	var seqs []int
	for rows.Next() {
		var seq int
		if err := rows.Scan(&seq); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan embedding seq: %w", err)
		}
		seqs = append(seqs, seq)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(seqs) > 0 {
		vecKeys := make([]string, len(seqs))
		for i, seq := range seqs {
			vecKeys[i] = VecKey(oldHash, seq)
		}
		if err := s.vectors.Delete(ctx, vecKeys); err != nil {
			return fmt.Errorf("failed to delete orphaned vectors: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM content_vector WHERE content_hash = ?`, oldHash); err != nil {
		return fmt.Errorf("failed to delete orphaned content_vector rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM content WHERE content_hash = ?`, oldHash); err != nil {
		return fmt.Errorf("failed to delete orphaned content row: %w", err)
	}

	return nil
}

// Remove soft-deletes a document (active=false) and orphan-GCs its content
// if nothing else references it.
func (s *Store) Remove(ctx context.Context, collectionID int64, path string) error {
	var hash string
	var id string

	err := s.withWriteLock(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, content_hash FROM documents WHERE collection_id = ? AND path = ? AND active = 1`,
			collectionID, path)
		if err := row.Scan(&id, &hash); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return fmt.Errorf("failed to look up document: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET active = 0, updated_at = ? WHERE collection_id = ? AND path = ?`,
			time.Now().UTC(), collectionID, path); err != nil {
			return fmt.Errorf("failed to deactivate document: %w", err)
		}

		return s.orphanGCLocked(ctx, tx, hash)
	})
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	return s.bm25.Delete(ctx, []string{id})
}

// GetDocument fetches the active document at (collectionID, path).
func (s *Store) GetDocument(ctx context.Context, collectionID int64, path string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.collection_id, d.path, d.title, c.body, d.content_hash, d.frontmatter, d.active, d.created_at, d.updated_at
		FROM documents d JOIN content c ON c.content_hash = d.content_hash
		WHERE d.collection_id = ? AND d.path = ? AND d.active = 1
	`, collectionID, path)

	return scanDocument(row)
}

func scanDocument(row *sql.Row) (*Document, error) {
	var doc Document
	var active int
	if err := row.Scan(&doc.ID, &doc.CollectionID, &doc.Path, &doc.Title, &doc.Content,
		&doc.ContentHash, &doc.Frontmatter, &active, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	doc.Active = active != 0
	return &doc, nil
}

// GetDocumentByID fetches an active document by its id, used by the
// searcher to resolve BM25/vector hits back to full documents.
func (s *Store) GetDocumentByID(ctx context.Context, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.collection_id, d.path, d.title, c.body, d.content_hash, d.frontmatter, d.active, d.created_at, d.updated_at
		FROM documents d JOIN content c ON c.content_hash = d.content_hash
		WHERE d.id = ? AND d.active = 1
	`, id)

	return scanDocument(row)
}

// GetContentByHash returns the body text stored for a content hash, used by
// the watcher's scan pass to embed content that has no vector yet.
func (s *Store) GetContentByHash(ctx context.Context, contentHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM content WHERE content_hash = ?`, contentHash).Scan(&body)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content for hash: %w", err)
	}
	return body, nil
}

// ListActivePaths returns the paths of every active document in a collection,
// used by the indexer to detect deletions during a directory walk.
func (s *Store) ListActivePaths(ctx context.Context, collectionID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM documents WHERE collection_id = ? AND active = 1`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// BM25 is the store.bm25 primitive: tokenize/lowercase/strip-metacharacter
// the query (handled inside BM25Index.Search), optionally restrict to a
// collection, and return normalized scores.
func (s *Store) BM25(ctx context.Context, query string, collectionID *int64, k int) ([]*BM25Result, error) {
	overfetch := k
	if collectionID != nil {
		overfetch = k * 4
	}

	results, err := s.bm25.Search(ctx, query, overfetch)
	if err != nil {
		return nil, err
	}
	if collectionID == nil {
		if len(results) > k {
			results = results[:k]
		}
		return results, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]*BM25Result, 0, k)
	for _, r := range results {
		var cid int64
		err := s.db.QueryRowContext(ctx, `SELECT collection_id FROM documents WHERE id = ? AND active = 1`, r.DocID).Scan(&cid)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve document collection: %w", err)
		}
		if cid != *collectionID {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) == k {
			break
		}
	}
	return filtered, nil
}

// Vec is the store.vec primitive: over-fetch 3*limit neighbors, resolve
// each vec_key back to its owning document, dedupe by (collection, path)
// keeping the closest match, and compute score = 1 - distance.
func (s *Store) Vec(ctx context.Context, embedding []float32, collectionID *int64, limit int) ([]*VectorResult, error) {
	raw, err := s.vectors.Search(ctx, embedding, limit*3)
	if err != nil {
		return nil, memoirerrors.Wrap(memoirerrors.KindVectorExtensionMissing, "vector search failed", err)
	}

	type keyed struct {
		docID  string
		cid    int64
		result *VectorResult
	}

	s.mu.Lock()
	best := make(map[string]keyed)
	for _, r := range raw {
		hash, _, ok := splitVecKey(r.ID)
		if !ok {
			continue
		}
		var docID string
		var cid int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id, collection_id FROM documents WHERE content_hash = ? AND active = 1 LIMIT 1`, hash).
			Scan(&docID, &cid)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to resolve vector owner: %w", err)
		}
		if collectionID != nil && cid != *collectionID {
			continue
		}

		score := 1 - r.Distance
		dedupeKey := fmt.Sprintf("%d:%s", cid, docID)
		if existing, ok := best[dedupeKey]; !ok || r.Distance < existing.result.Distance {
			best[dedupeKey] = keyed{docID: docID, cid: cid, result: &VectorResult{ID: docID, Distance: r.Distance, Score: score}}
		}
	}
	s.mu.Unlock()

	out := make([]*VectorResult, 0, len(best))
	for _, k := range best {
		out = append(out, k.result)
	}
	sortVectorResultsByScore(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func splitVecKey(key string) (hash string, seq int, ok bool) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '_' {
			hash = key[:i]
			var n int
			_, err := fmt.Sscanf(key[i+1:], "%d", &n)
			if err != nil {
				return "", 0, false
			}
			return hash, n, true
		}
	}
	return "", 0, false
}

func sortVectorResultsByScore(results []*VectorResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

// HashesForEmbedding returns the content hashes of active documents that
// have no embedding recorded for modelName.
func (s *Store) HashesForEmbedding(ctx context.Context, modelName string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT d.content_hash
		FROM documents d
		WHERE d.active = 1 AND NOT EXISTS (
			SELECT 1 FROM content_vector cv
			WHERE cv.content_hash = d.content_hash AND cv.model_name = ?
		)
	`, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending embeddings: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// InsertEmbedding records one embedded chunk and adds its vector to the ANN
// index under vec_key = "{contentHash}_{seq}".
func (s *Store) InsertEmbedding(ctx context.Context, contentHash string, seq, pos int, modelName string, vector []float32) error {
	if len(vector) != s.dims {
		return ErrDimensionMismatch{Expected: s.dims, Got: len(vector)}
	}

	err := s.withWriteLock(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO content_vector (content_hash, seq, pos, model_name, embedded_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (content_hash, seq) DO UPDATE SET
				pos = excluded.pos, model_name = excluded.model_name, embedded_at = excluded.embedded_at
		`, contentHash, seq, pos, modelName, time.Now().UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record embedding: %w", err)
	}

	return s.vectors.Add(ctx, []string{VecKey(contentHash, seq)}, [][]float32{vector})
}

// ClearAllEmbeddings drops every recorded embedding and ANN entry, used
// before switching embedding models.
func (s *Store) ClearAllEmbeddings(ctx context.Context) error {
	ids := s.vectors.AllIDs()
	if len(ids) > 0 {
		if err := s.vectors.Delete(ctx, ids); err != nil {
			return fmt.Errorf("failed to clear vector store: %w", err)
		}
	}

	return s.withWriteLock(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM content_vector`)
		return err
	})
}

// EnsureVecTable makes the vector store match dims, recreating it from
// scratch (and clearing embedding bookkeeping) if the dimension changed.
func (s *Store) EnsureVecTable(ctx context.Context, dims int) error {
	s.mu.Lock()
	sameDims := s.dims == dims
	s.mu.Unlock()
	if sameDims {
		return nil
	}

	if err := s.ClearAllEmbeddings(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.vectors.Close(); err != nil {
		return fmt.Errorf("failed to close previous vector store: %w", err)
	}
	_ = os.Remove(vectorIndexPath(s.dir))
	_ = os.Remove(vectorIndexPath(s.dir) + ".meta")

	cfg := DefaultVectorStoreConfig(dims)
	newStore, err := NewHNSWStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to recreate vector store: %w", err)
	}

	s.vectors = newStore
	s.dims = dims
	return nil
}

// EmbeddingStatus reports coverage of modelName across active documents.
func (s *Store) EmbeddingStatus(ctx context.Context, modelName string) (*EmbeddingStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT content_hash) FROM documents WHERE active = 1`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	var embedded int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT d.content_hash)
		FROM documents d JOIN content_vector cv ON cv.content_hash = d.content_hash
		WHERE d.active = 1 AND cv.model_name = ?
	`, modelName).Scan(&embedded); err != nil {
		return nil, fmt.Errorf("failed to count embedded documents: %w", err)
	}

	return &EmbeddingStatus{Total: total, Embedded: embedded, Pending: total - embedded}, nil
}

// AddCollection upserts a named root by name: if the name exists its root
// and glob are updated in place, otherwise a new row is created.
func (s *Store) AddCollection(ctx context.Context, name, root, glob string) (*Collection, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, memoirerrors.Wrap(memoirerrors.KindCollectionPathMissing, fmt.Sprintf("collection root %q does not exist", root), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, root, glob, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET root = excluded.root, glob = excluded.glob
	`, name, root, glob, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert collection: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT id, name, root, glob, created_at FROM collections WHERE name = ?`, name)
	var c Collection
	if err := row.Scan(&c.ID, &c.Name, &c.Root, &c.Glob, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to read back collection: %w", err)
	}
	return &c, nil
}

// RemoveCollection deletes a collection and cascades to its documents via
// the foreign key. The lexical-index entries, content rows and vectors of
// those documents are not removed by this call.
func (s *Store) RemoveCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to remove collection: %w", err)
	}
	return nil
}

// ListCollections returns every registered collection.
func (s *Store) ListCollections(ctx context.Context) ([]*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, root, glob, created_at FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var out []*Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Root, &c.Glob, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Close flushes and closes the lexical index, vector index, and metadata db.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.vectors.Save(vectorIndexPath(s.dir)); err != nil {
		return fmt.Errorf("failed to save vector store: %w", err)
	}
	if err := s.vectors.Close(); err != nil {
		return fmt.Errorf("failed to close vector store: %w", err)
	}
	if err := s.bm25.Close(); err != nil {
		return fmt.Errorf("failed to close lexical index: %w", err)
	}
	return s.db.Close()
}

package store

import (
	"context"
	"fmt"
)

// InconsistencyKind classifies a detected drift between the metadata tables
// and the pluggable lexical/vector indexes.
type InconsistencyKind int

const (
	// OrphanBM25Entry is a lexical-index entry with no active document backing it.
	OrphanBM25Entry InconsistencyKind = iota
	// MissingBM25Entry is an active document with no lexical-index entry.
	MissingBM25Entry
	// OrphanVectorEntry is a vector-index entry with no content_vector row backing it.
	OrphanVectorEntry
	// MissingVectorEntry is a content_vector row with no corresponding vector-index entry.
	MissingVectorEntry
)

func (k InconsistencyKind) String() string {
	switch k {
	case OrphanBM25Entry:
		return "orphan_bm25_entry"
	case MissingBM25Entry:
		return "missing_bm25_entry"
	case OrphanVectorEntry:
		return "orphan_vector_entry"
	case MissingVectorEntry:
		return "missing_vector_entry"
	default:
		return "unknown"
	}
}

// Inconsistency is one detected drift between the metadata tables and an index.
type Inconsistency struct {
	Kind InconsistencyKind
	Key  string
}

// CheckConsistency compares the lexical and vector indexes against the
// metadata tables (invariants I1/I3 in the coherence model) and reports any
// drift without repairing it.
func (s *Store) CheckConsistency(ctx context.Context) ([]Inconsistency, error) {
	var out []Inconsistency

	activeDocIDs := make(map[string]bool)
	s.mu.Lock()
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents WHERE active = 1`)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to list active documents: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			s.mu.Unlock()
			return nil, err
		}
		activeDocIDs[id] = true
	}
	rows.Close()
	s.mu.Unlock()

	bm25IDs, err := s.bm25.AllIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list lexical index ids: %w", err)
	}
	bm25Set := make(map[string]bool, len(bm25IDs))
	for _, id := range bm25IDs {
		bm25Set[id] = true
		if !activeDocIDs[id] {
			out = append(out, Inconsistency{Kind: OrphanBM25Entry, Key: id})
		}
	}
	for id := range activeDocIDs {
		if !bm25Set[id] {
			out = append(out, Inconsistency{Kind: MissingBM25Entry, Key: id})
		}
	}

	vecKeys := make(map[string]bool)
	s.mu.Lock()
	vrows, err := s.db.QueryContext(ctx, `SELECT content_hash, seq FROM content_vector`)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to list embedded vectors: %w", err)
	}
	for vrows.Next() {
		var hash string
		var seq int
		if err := vrows.Scan(&hash, &seq); err != nil {
			vrows.Close()
			s.mu.Unlock()
			return nil, err
		}
		vecKeys[VecKey(hash, seq)] = true
	}
	vrows.Close()
	s.mu.Unlock()

	indexIDs := s.vectors.AllIDs()
	indexSet := make(map[string]bool, len(indexIDs))
	for _, id := range indexIDs {
		indexSet[id] = true
		if !vecKeys[id] {
			out = append(out, Inconsistency{Kind: OrphanVectorEntry, Key: id})
		}
	}
	for key := range vecKeys {
		if !indexSet[key] {
			out = append(out, Inconsistency{Kind: MissingVectorEntry, Key: key})
		}
	}

	return out, nil
}

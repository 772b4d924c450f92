package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kestrelmd/memoir/internal/store"
)

// Searcher runs the hybrid BM25 + ANN retrieval pipeline: parallel
// retrieval, RRF fusion, and the first-applicable rerank strategy.
type Searcher struct {
	st     *store.Store
	fusion *RRFFusion
	cfg    Config
}

// New returns a Searcher over st using cfg's fusion constant and overfetch
// multiplier.
func New(st *store.Store, cfg Config) *Searcher {
	return &Searcher{
		st:     st,
		fusion: NewRRFFusionWithK(cfg.RRFConstant),
		cfg:    cfg,
	}
}

// Search runs the six-step hybrid query: parallel BM25+ANN retrieval,
// single-side shortcut, RRF fusion, top-4*limit rerank candidate selection,
// first-applicable rerank strategy, and truncation to limit.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]*Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	overfetch := limit * s.cfg.OverfetchMult

	var bm25Results []*store.BM25Result
	var vecResults []*store.VectorResult
	var bm25Err error

	var wg sync.WaitGroup
	if query != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bm25Results, bm25Err = s.st.BM25(ctx, query, opts.CollectionID, overfetch)
		}()
	}
	if len(opts.QueryEmbedding) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// ANN failures degrade to an empty list rather than propagating.
			if r, err := s.st.Vec(ctx, opts.QueryEmbedding, opts.CollectionID, overfetch); err == nil {
				vecResults = r
			}
		}()
	}
	wg.Wait()
	if bm25Err != nil {
		return nil, fmt.Errorf("bm25 search failed: %w", bm25Err)
	}

	if len(bm25Results) == 0 && len(vecResults) == 0 {
		return []*Result{}, nil
	}

	if len(bm25Results) == 0 || len(vecResults) == 0 {
		single, err := s.singleSideResults(ctx, bm25Results, vecResults, limit)
		if err != nil {
			return nil, err
		}
		return s.filterByMinScore(single, opts.MinScore), nil
	}

	fused := s.fusion.Fuse(bm25Results, vecResults, 1.0, 1.0)

	candidateCount := limit * 4
	if candidateCount > len(fused) {
		candidateCount = len(fused)
	}
	candidates := fused[:candidateCount]

	reranked, err := s.rerank(ctx, query, opts, candidates)
	if err != nil {
		return nil, err
	}

	if len(reranked) > limit {
		reranked = reranked[:limit]
	}

	return s.filterByMinScore(reranked, opts.MinScore), nil
}

func (s *Searcher) singleSideResults(ctx context.Context, bm25 []*store.BM25Result, vec []*store.VectorResult, limit int) ([]*Result, error) {
	var out []*Result
	if len(bm25) > 0 {
		if len(bm25) > limit {
			bm25 = bm25[:limit]
		}
		for _, r := range bm25 {
			doc, err := s.st.GetDocumentByID(ctx, r.DocID)
			if err != nil || doc == nil {
				continue
			}
			out = append(out, &Result{Document: doc, Score: r.Score, BM25Score: r.Score, Source: SourceBM25})
		}
		return out, nil
	}

	if len(vec) > limit {
		vec = vec[:limit]
	}
	for _, r := range vec {
		doc, err := s.st.GetDocumentByID(ctx, r.ID)
		if err != nil || doc == nil {
			continue
		}
		out = append(out, &Result{Document: doc, Score: float64(r.Score), VecScore: float64(r.Score), Source: SourceVec})
	}
	return out, nil
}

// rerank applies the first applicable strategy: cross-encoder, external
// callback, embedding cosine, then keyword overlap.
func (s *Searcher) rerank(ctx context.Context, query string, opts Options, candidates []*FusedResult) ([]*Result, error) {
	docs := make([]*store.Document, 0, len(candidates))
	for _, c := range candidates {
		doc, err := s.st.GetDocumentByID(ctx, c.DocID)
		if err != nil {
			return nil, fmt.Errorf("resolve candidate document: %w", err)
		}
		if doc == nil {
			continue
		}
		docs = append(docs, doc)
	}

	switch {
	case opts.Reranker != nil:
		return s.rerankCrossEncoder(ctx, query, candidates, docs, opts.Reranker)
	case opts.RerankCallback != nil:
		return s.rerankCallback(candidates, docs, opts.RerankCallback, query)
	case len(opts.QueryEmbedding) > 0:
		return s.rerankEmbedding(candidates, docs)
	default:
		return s.rerankKeyword(query, candidates, docs)
	}
}

func resultsByDocID(candidates []*FusedResult) map[string]*FusedResult {
	m := make(map[string]*FusedResult, len(candidates))
	for _, c := range candidates {
		m[c.DocID] = c
	}
	return m
}

func (s *Searcher) rerankCrossEncoder(ctx context.Context, query string, candidates []*FusedResult, docs []*store.Document, reranker Reranker) ([]*Result, error) {
	if !reranker.Available(ctx) {
		return s.rerankKeyword(query, candidates, docs)
	}

	bodies := make([]string, len(docs))
	for i, d := range docs {
		bodies[i] = d.Content
	}

	scores, err := reranker.Rerank(ctx, query, bodies, 0)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder rerank failed: %w", err)
	}

	byIdx := resultsByDocID(candidates)
	out := make([]*Result, 0, len(scores))
	for _, sc := range scores {
		if sc.Index >= len(docs) {
			continue
		}
		doc := docs[sc.Index]
		fused := byIdx[doc.ID]
		out = append(out, &Result{
			Document:  doc,
			Score:     sc.Score,
			BM25Score: scoreOrZero(fused, true),
			VecScore:  scoreOrZero(fused, false),
			Source:    sourceOf(fused),
		})
	}
	sortResultsByScore(out)
	return out, nil
}

func (s *Searcher) rerankCallback(candidates []*FusedResult, docs []*store.Document, cb func(string, []string) (map[string]float64, error), query string) ([]*Result, error) {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	scores, err := cb(query, ids)
	if err != nil {
		return nil, fmt.Errorf("external rerank callback failed: %w", err)
	}

	byIdx := resultsByDocID(candidates)
	out := make([]*Result, 0, len(docs))
	for _, doc := range docs {
		fused := byIdx[doc.ID]
		blended := 0.4*fused.RRFScore + 0.6*scores[doc.ID]
		out = append(out, &Result{
			Document:  doc,
			Score:     blended,
			BM25Score: fused.BM25Score,
			VecScore:  fused.VecScore,
			Source:    sourceOf(fused),
		})
	}
	sortResultsByScore(out)
	return out, nil
}

// rerankEmbedding uses each candidate's already-computed vector similarity
// (the best-matching seq for that document, from the ANN retrieval pass) as
// its cosine-similarity score against the query embedding.
func (s *Searcher) rerankEmbedding(candidates []*FusedResult, docs []*store.Document) ([]*Result, error) {
	out := make([]*Result, 0, len(docs))
	for _, fused := range candidates {
		doc := docByID(docs, fused.DocID)
		if doc == nil {
			continue
		}
		score := fused.VecScore
		out = append(out, &Result{
			Document:  doc,
			Score:     score,
			BM25Score: fused.BM25Score,
			VecScore:  fused.VecScore,
			Source:    sourceOf(fused),
		})
	}
	sortResultsByScore(out)
	return out, nil
}

// rerankKeyword splits the query into lowercase terms of length >1 and
// scores each candidate by term occurrence in title+body, with a 0.5 bonus
// for a token-boundary match, blended 0.3*original + 0.7*(matches/|terms|).
func (s *Searcher) rerankKeyword(query string, candidates []*FusedResult, docs []*store.Document) ([]*Result, error) {
	terms := keywordTerms(query)

	out := make([]*Result, 0, len(docs))
	for _, fused := range candidates {
		doc := docByID(docs, fused.DocID)
		if doc == nil {
			continue
		}

		var final float64
		if len(terms) == 0 {
			final = fused.RRFScore
		} else {
			matches := countTermMatches(doc.Title+" "+doc.Content, terms)
			final = 0.3*fused.RRFScore + 0.7*(matches/float64(len(terms)))
		}

		out = append(out, &Result{
			Document:  doc,
			Score:     final,
			BM25Score: fused.BM25Score,
			VecScore:  fused.VecScore,
			Source:    sourceOf(fused),
		})
	}
	sortResultsByScore(out)
	return out, nil
}

func keywordTerms(query string) []string {
	var terms []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(tok)) > 1 {
			terms = append(terms, tok)
		}
	}
	return terms
}

// countTermMatches adds 1 per occurrence of each term in text, plus a 0.5
// bonus when that occurrence falls on a token boundary.
func countTermMatches(text string, terms []string) float64 {
	lower := strings.ToLower(text)
	var total float64
	for _, term := range terms {
		idx := 0
		for {
			pos := strings.Index(lower[idx:], term)
			if pos < 0 {
				break
			}
			abs := idx + pos
			total += 1
			if isTokenBoundaryMatch(lower, abs, len(term)) {
				total += 0.5
			}
			idx = abs + len(term)
			if idx >= len(lower) {
				break
			}
		}
	}
	return total
}

func isTokenBoundaryMatch(text string, start, length int) bool {
	before := start == 0 || !isWordRune(rune(text[start-1]))
	endIdx := start + length
	after := endIdx >= len(text) || !isWordRune(rune(text[endIdx]))
	return before && after
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func docByID(docs []*store.Document, id string) *store.Document {
	for _, d := range docs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func scoreOrZero(fused *FusedResult, bm25 bool) float64 {
	if fused == nil {
		return 0
	}
	if bm25 {
		return fused.BM25Score
	}
	return fused.VecScore
}

func sourceOf(fused *FusedResult) ResultSource {
	if fused == nil {
		return SourceHybrid
	}
	return fused.Source
}

func sortResultsByScore(results []*Result) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

func (s *Searcher) filterByMinScore(results []*Result, minScore float64) []*Result {
	if minScore <= 0 {
		return results
	}
	out := results[:0]
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}

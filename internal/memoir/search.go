package memoir

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/kestrelmd/memoir/internal/index"
	"github.com/kestrelmd/memoir/internal/search"
)

// Search runs a hybrid search scoped to the memory collection and applies
// half-life decay: for each hit whose frontmatter carries a positive
// half_life_days, the base score is multiplied by
// 2^(-days_since_updated_at/half_life) and the result set is re-sorted.
// Hits without a half-life pass through unchanged.
func (m *Memoir) Search(ctx context.Context, searcher *search.Searcher, query string, opts SearchOptions) ([]*SearchHit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	results, err := searcher.Search(ctx, query, search.Options{
		CollectionID:   &m.col.ID,
		Limit:          limit * 2,
		MinScore:       opts.MinScore,
		QueryEmbedding: opts.QueryEmbedding,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]*SearchHit, 0, len(results))
	for _, r := range results {
		key := relPathToKey(r.Document.Path)
		if opts.Prefix != "" && !zoneMatches(key, opts.Prefix) {
			continue
		}

		meta := parseStoredFrontmatter(r.Document.Frontmatter)
		title := index.TitleFromFrontMatter(meta, stemOf(r.Document.Path))

		score := r.Score
		if decay, ok := halfLifeDecay(meta); ok {
			score *= decay
		}

		hits = append(hits, &SearchHit{
			Key:      key,
			Title:    title,
			Body:     r.Document.Content,
			Metadata: meta,
			Score:    score,
			RawScore: r.Score,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func parseStoredFrontmatter(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	meta, _ := index.ParseFrontMatter("---\n" + raw + "---\n")
	return meta
}

// halfLifeDecay returns the decay multiplier for meta's half_life_days and
// updated_at, and whether a half-life applies at all.
func halfLifeDecay(meta map[string]any) (float64, bool) {
	if meta == nil {
		return 1, false
	}

	halfLife, ok := asFloat(meta["half_life_days"])
	if !ok || halfLife <= 0 {
		return 1, false
	}

	updatedAtStr, ok := meta["updated_at"].(string)
	if !ok {
		return 1, false
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return 1, false
	}

	daysSince := time.Since(updatedAt).Hours() / 24
	if daysSince < 0 {
		daysSince = 0
	}

	return math.Pow(2, -daysSince/halfLife), true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

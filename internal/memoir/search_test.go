package memoir

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelmd/memoir/internal/search"
	"github.com/kestrelmd/memoir/internal/store"
)

func TestSearchReturnsMatchingEntry(t *testing.T) {
	m, st := newTestMemoir(t)
	ctx := context.Background()

	_, err := m.Set(ctx, "notes.gardening", "tomatoes and basil grow well together", nil)
	require.NoError(t, err)
	_, err = m.Set(ctx, "notes.compute", "distributed systems and consensus", nil)
	require.NoError(t, err)

	s := search.New(st, search.DefaultConfig())
	hits, err := m.Search(ctx, s, "tomatoes", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "notes.gardening", hits[0].Key)
}

func TestSearchAppliesHalfLifeDecayAndResorts(t *testing.T) {
	m, st := newTestMemoir(t)
	ctx := context.Background()

	old := time.Now().Add(-30 * 24 * time.Hour).UTC().Format(time.RFC3339)
	fresh := time.Now().UTC().Format(time.RFC3339)

	oldFM, err := renderFrontmatterOnly(map[string]any{
		"id": "decay.old", "key": "decay.old", "type": "archival",
		"half_life_days": 1.0, "updated_at": old,
	})
	require.NoError(t, err)
	_, err = st.Upsert(ctx, store.UpsertInput{
		CollectionID: m.col.ID, Path: "decay/old.md", Title: "Old",
		Body: "consensus algorithm raft notes", Frontmatter: oldFM,
	})
	require.NoError(t, err)

	freshFM, err := renderFrontmatterOnly(map[string]any{
		"id": "decay.fresh", "key": "decay.fresh", "type": "archival",
		"half_life_days": 1.0, "updated_at": fresh,
	})
	require.NoError(t, err)
	_, err = st.Upsert(ctx, store.UpsertInput{
		CollectionID: m.col.ID, Path: "decay/fresh.md", Title: "Fresh",
		Body: "consensus algorithm raft notes", Frontmatter: freshFM,
	})
	require.NoError(t, err)

	s := search.New(st, search.DefaultConfig())
	hits, err := m.Search(ctx, s, "consensus raft", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "decay.fresh", hits[0].Key)
	assert.Less(t, hits[1].Score, hits[0].Score)
	assert.Less(t, hits[1].Score, hits[1].RawScore)
}

func TestSearchWithoutHalfLifePassesThroughUnchanged(t *testing.T) {
	m, st := newTestMemoir(t)
	ctx := context.Background()

	_, err := m.Set(ctx, "plain.note", "no decay applies here", nil)
	require.NoError(t, err)

	s := search.New(st, search.DefaultConfig())
	hits, err := m.Search(ctx, s, "decay applies", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, hits[0].RawScore, hits[0].Score)
}

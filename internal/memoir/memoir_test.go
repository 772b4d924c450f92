package memoir

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelmd/memoir/internal/store"
)

func newTestMemoir(t *testing.T) (*Memoir, *store.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Options{DataDir: t.TempDir(), BM25Backend: "sqlite", Dimensions: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	m, err := New(ctx, st, t.TempDir())
	require.NoError(t, err)
	return m, st
}

func TestSetThenGetRoundTrips(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	entry, err := m.Set(ctx, "notes.today", "wrote the design doc", map[string]any{"mood": "good"})
	require.NoError(t, err)
	assert.Equal(t, "notes.today", entry.Key)
	assert.Equal(t, "archival", entry.Metadata["type"])
	assert.Equal(t, "notes.today", entry.Metadata["id"])
	assert.Equal(t, "good", entry.Metadata["mood"])

	got, err := m.Get(ctx, "notes.today")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "wrote the design doc", got.Body)
	assert.Equal(t, "good", got.Metadata["mood"])
}

func TestGetMissingKeyReturnsNil(t *testing.T) {
	m, _ := newTestMemoir(t)
	got, err := m.Get(context.Background(), "nothing.here")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetPreservesExistingMetadataNotOverwritten(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	_, err := m.Set(ctx, "proj.status", "green", map[string]any{"owner": "ari"})
	require.NoError(t, err)

	entry, err := m.Set(ctx, "proj.status", "yellow", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "ari", entry.Metadata["owner"])
	assert.Equal(t, "yellow", entry.Body)
}

func TestSetNewOverridesExistingSameKey(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	_, err := m.Set(ctx, "proj.status", "green", map[string]any{"owner": "ari"})
	require.NoError(t, err)

	entry, err := m.Set(ctx, "proj.status", "yellow", map[string]any{"owner": "sam"})
	require.NoError(t, err)
	assert.Equal(t, "sam", entry.Metadata["owner"])
}

func TestSetUndefinedMetadataValuesAreStripped(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	entry, err := m.Set(ctx, "a.b", "body", map[string]any{"tag": "x", "ignored": nil})
	require.NoError(t, err)
	_, hasIgnored := entry.Metadata["ignored"]
	assert.False(t, hasIgnored)
	assert.Equal(t, "x", entry.Metadata["tag"])
}

func TestDeleteRemovesEntry(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	_, err := m.Set(ctx, "a.b", "body", nil)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "a.b"))

	got, err := m.Get(ctx, "a.b")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteOfMissingKeyIsNoOp(t *testing.T) {
	m, _ := newTestMemoir(t)
	assert.NoError(t, m.Delete(context.Background(), "never.existed"))
}

func TestInvalidKeyRejectedBySet(t *testing.T) {
	m, _ := newTestMemoir(t)
	_, err := m.Set(context.Background(), "a..b", "body", nil)
	assert.Error(t, err)
}

func TestConcurrentSetsOnSameKeySerialize(t *testing.T) {
	m, _ := newTestMemoir(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Set(ctx, "shared.key", "body", map[string]any{"writer": i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := m.Get(ctx, "shared.key")
	require.NoError(t, err)
	require.NotNil(t, got)
	// Exactly one writer's value should have won, with no corrupted merge.
	assert.Contains(t, got.Metadata, "writer")
}

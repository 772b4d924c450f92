package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedderDimensions(t *testing.T) {
	e := NewStaticEmbedder(256)
	assert.Equal(t, 256, e.Dimensions())
}

func TestStaticEmbedderDeterministic(t *testing.T) {
	e := NewStaticEmbedder(0)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "ZoneDepthExceeded")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "ZoneDepthExceeded")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestStaticEmbedderEmptyTextIsZeroVector(t *testing.T) {
	e := NewStaticEmbedder(0)
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, f := range v {
		assert.Zero(t, f)
	}
}

func TestStaticEmbedderBatchMatchesSingle(t *testing.T) {
	e := NewStaticEmbedder(0)
	ctx := context.Background()
	texts := []string{"alpha", "beta", "gamma"}

	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestStaticEmbedderCloseRejectsSubsequentCalls(t *testing.T) {
	e := NewStaticEmbedder(0)
	require.NoError(t, e.Close())
	_, err := e.Embed(context.Background(), "x")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}

func TestFormattingContract(t *testing.T) {
	assert.Equal(t, "task: search result | query: zones", FormatQuery("zones"))
	assert.Equal(t, "title: none | text: zones", FormatDocument("zones"))
}

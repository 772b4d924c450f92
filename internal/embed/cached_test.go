package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	inner Embedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.inner.Embed(ctx, text)
}
func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	return c.inner.EmbedBatch(ctx, texts)
}
func (c *countingEmbedder) Dimensions() int             { return c.inner.Dimensions() }
func (c *countingEmbedder) ModelName() string           { return c.inner.ModelName() }
func (c *countingEmbedder) Available(ctx context.Context) bool { return c.inner.Available(ctx) }
func (c *countingEmbedder) Close() error                { return c.inner.Close() }

func TestCachedEmbedderDedupesRepeatedText(t *testing.T) {
	counting := &countingEmbedder{inner: NewStaticEmbedder(32)}
	cached := NewCachedEmbedder(counting, 10)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "repeat me")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "repeat me")
	require.NoError(t, err)

	assert.Equal(t, int64(1), counting.calls.Load())
}

func TestCachedEmbedderBatchOnlyCallsForMisses(t *testing.T) {
	counting := &countingEmbedder{inner: NewStaticEmbedder(32)}
	cached := NewCachedEmbedder(counting, 10)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "a")
	require.NoError(t, err)

	results, err := cached.EmbedBatch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, int64(2), counting.calls.Load())
}

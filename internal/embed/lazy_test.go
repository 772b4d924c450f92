package embed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memoirerrors "github.com/kestrelmd/memoir/internal/errors"
)

func TestLazyEmbedderLoadsOnce(t *testing.T) {
	var loadCount atomic.Int64
	lazy := NewLazyEmbedder(func(_ context.Context) (Embedder, error) {
		loadCount.Add(1)
		return NewStaticEmbedder(64), nil
	}, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lazy.Embed(context.Background(), "concurrent")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), loadCount.Load())
}

func TestLazyEmbedderSurfacesModelUnavailable(t *testing.T) {
	lazy := NewLazyEmbedder(func(_ context.Context) (Embedder, error) {
		return nil, errors.New("connection refused")
	}, time.Second)

	_, err := lazy.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, memoirerrors.KindModelUnavailable, memoirerrors.KindOf(err))
}

func TestLazyEmbedderSurfacesLoadTimeout(t *testing.T) {
	lazy := NewLazyEmbedder(func(ctx context.Context) (Embedder, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 20*time.Millisecond)

	_, err := lazy.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, memoirerrors.KindModelLoadTimeout, memoirerrors.KindOf(err))
}

func TestLazyEmbedderUnloadForcesReload(t *testing.T) {
	var loadCount atomic.Int64
	lazy := NewLazyEmbedder(func(_ context.Context) (Embedder, error) {
		loadCount.Add(1)
		return NewStaticEmbedder(32), nil
	}, time.Second)

	_, err := lazy.Embed(context.Background(), "x")
	require.NoError(t, err)
	require.NoError(t, lazy.Unload())
	_, err = lazy.Embed(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, int64(2), loadCount.Load())
}

func TestRequireLoadedBeforeFirstUse(t *testing.T) {
	lazy := NewLazyEmbedder(func(_ context.Context) (Embedder, error) {
		return NewStaticEmbedder(32), nil
	}, time.Second)

	err := lazy.RequireLoaded()
	require.Error(t, err)
	assert.Equal(t, memoirerrors.KindEmbeddingContextUnavailable, memoirerrors.KindOf(err))

	require.NoError(t, lazy.Warm(context.Background()))
	assert.NoError(t, lazy.RequireLoaded())
}

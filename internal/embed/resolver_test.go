package embed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverReturnsExistingLocalPath(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.gguf")
	require.NoError(t, os.WriteFile(modelPath, []byte("fake model bytes"), 0644))

	r := NewResolver(dir)
	resolved, err := r.Resolve(context.Background(), modelPath)
	require.NoError(t, err)
	assert.Equal(t, modelPath, resolved)
}

func TestResolverErrorsOnMissingLocalPathWithoutScheme(t *testing.T) {
	r := NewResolver(t.TempDir())
	_, err := r.Resolve(context.Background(), "/does/not/exist.gguf")
	assert.Error(t, err)
}

func TestResolverRejectsMalformedHuggingFaceRef(t *testing.T) {
	r := NewResolver(t.TempDir())
	_, err := r.Resolve(context.Background(), "hf:just-a-repo")
	assert.Error(t, err)
}

// This file implements the remote model resolver: given a URI like
// "hf:owner/repo/file.gguf", it ensures the model file exists in the local
// models directory, downloading it under a cross-process lock if not.
package embed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	memoirerrors "github.com/kestrelmd/memoir/internal/errors"
)

// ModelDownloadTimeout bounds a single remote model fetch.
const ModelDownloadTimeout = 10 * time.Minute

// RetryConfig is the backoff policy used by DownloadWithRetry.
type RetryConfig = memoirerrors.RetryConfig

// DefaultRetryConfig returns the default download retry policy.
func DefaultRetryConfig() RetryConfig { return memoirerrors.DefaultRetryConfig() }

// DownloadWithRetry runs fn with exponential backoff as configured by cfg.
func DownloadWithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	return memoirerrors.Retry(ctx, cfg, fn)
}

// Resolver resolves a model URI to a local file path, downloading and
// caching the file under a cross-process lock when necessary.
type Resolver struct {
	modelsDir string
	mu        sync.Mutex
}

// NewResolver creates a resolver rooted at modelsDir.
func NewResolver(modelsDir string) *Resolver {
	return &Resolver{modelsDir: modelsDir}
}

// DefaultModelsDir returns the default local model cache directory.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cache", "memoir", "models")
}

// Resolve returns a local path for uri, fetching it if necessary.
//
// Supported schemes:
//   - "hf:owner/repo/file.gguf" resolves to the HuggingFace "resolve/main" URL.
//   - a bare local path is returned unchanged if it exists on disk.
func (r *Resolver) Resolve(ctx context.Context, uri string) (string, error) {
	if strings.HasPrefix(uri, "hf:") {
		return r.resolveHuggingFace(ctx, strings.TrimPrefix(uri, "hf:"))
	}
	if _, err := os.Stat(uri); err == nil {
		return uri, nil
	}
	return "", fmt.Errorf("model not found and no remote resolver for uri %q", uri)
}

func (r *Resolver) resolveHuggingFace(ctx context.Context, ref string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := strings.SplitN(ref, "/", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid hf: reference %q, want owner/repo/file", ref)
	}
	owner, repo, file := parts[0], parts[1], parts[2]

	destPath := filepath.Join(r.modelsDir, owner, repo, file)
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		return destPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	lock := NewFileLock(filepath.Dir(destPath))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("failed to acquire download lock: %w", err)
	}
	defer lock.Unlock()

	// Re-check after acquiring the lock: another process may have downloaded
	// the file while we were waiting.
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		return destPath, nil
	}

	url := fmt.Sprintf("https://huggingface.co/%s/%s/resolve/main/%s", owner, repo, file)
	if err := downloadToFile(ctx, url, destPath); err != nil {
		return "", fmt.Errorf("failed to download %s: %w", uriLabel(owner, repo, file), err)
	}
	return destPath, nil
}

func uriLabel(owner, repo, file string) string {
	return "hf:" + owner + "/" + repo + "/" + file
}

// downloadToFile streams url to destPath via an atomic tmp-file-then-rename.
func downloadToFile(ctx context.Context, url, destPath string) error {
	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "memoir/1.0")

	client := &http.Client{Timeout: ModelDownloadTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("failed to write: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}
	return nil
}

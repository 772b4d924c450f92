package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kestrelmd/memoir/internal/config"
	"github.com/kestrelmd/memoir/internal/engine"
)

// openEngine finds the project root from the current directory, loads the
// layered configuration, and returns an initialized Engine. Callers must
// Close it.
func openEngine(ctx context.Context) (*engine.Engine, error) {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dataDir := cfg.Store.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(root, ".memoir")
	}
	memoirRoot := cfg.Memoir.Root
	if memoirRoot == "" {
		memoirRoot = filepath.Join(dataDir, "memory")
	}

	e := engine.New(cfg, dataDir, memoirRoot)
	if err := e.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}
	return e, nil
}

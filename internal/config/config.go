// Package config loads layered configuration for the engine: hardcoded
// defaults, a user/global file, a per-collection-root project file, and
// environment variable overrides, in that order of increasing precedence.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Watcher    WatcherConfig    `yaml:"watcher" json:"watcher"`
	Memoir     MemoirConfig     `yaml:"memoir" json:"memoir"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// SearchConfig configures the hybrid ranking pipeline (C3).
type SearchConfig struct {
	// BM25Weight and SemanticWeight must sum to 1.0.
	BM25Weight     float64 `yaml:"bm25_weight" json:"bm25_weight"`
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	// RRFConstant is the fusion smoothing parameter k (default 60).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
	// BM25Backend selects the lexical index implementation: "sqlite" (default,
	// FTS5-style, concurrent via WAL) or "bleve" (single-process, legacy).
	BM25Backend string `yaml:"bm25_backend" json:"bm25_backend"`
	// MaxResults is the default result limit when a caller passes 0.
	MaxResults int `yaml:"max_results" json:"max_results"`
	// OverfetchMultiplier controls how many candidates each side retrieves
	// before fusion (spec: 4x limit).
	OverfetchMultiplier int `yaml:"overfetch_multiplier" json:"overfetch_multiplier"`
}

// EmbeddingsConfig configures the embedder (C4).
type EmbeddingsConfig struct {
	// Provider selects the embedding backend: "static" (deterministic, no
	// model file, default) or "ollama" (HTTP, local Ollama daemon).
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`

	// OllamaHost is the Ollama API endpoint (default http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// ModelDownloadTimeout bounds a remote model fetch.
	ModelDownloadTimeout time.Duration `yaml:"model_download_timeout" json:"model_download_timeout"`
	// ModelLoadTimeout bounds the single-flight model load (spec default 5m).
	ModelLoadTimeout time.Duration `yaml:"model_load_timeout" json:"model_load_timeout"`
	// CacheSize is the number of embedded texts kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// ModelsDir overrides the default local model cache directory.
	ModelsDir string `yaml:"models_dir" json:"models_dir"`
}

// WatcherConfig configures the filesystem watcher and auto-embed loop (C5).
type WatcherConfig struct {
	DebounceWindow  time.Duration `yaml:"debounce_window" json:"debounce_window"`
	ScanInterval    time.Duration `yaml:"scan_interval" json:"scan_interval"`
	EventBufferSize int           `yaml:"event_buffer_size" json:"event_buffer_size"`
}

// MemoirConfig configures the tree-memory facade (C7).
type MemoirConfig struct {
	Root                string  `yaml:"root" json:"root"`
	DefaultType          string  `yaml:"default_type" json:"default_type"`
	DefaultHalfLifeDays  float64 `yaml:"default_half_life_days" json:"default_half_life_days"`
}

// StoreConfig configures the embedded database (C1).
type StoreConfig struct {
	DataDir       string `yaml:"data_dir" json:"data_dir"`
	SQLiteCacheMB int    `yaml:"sqlite_cache_mb" json:"sqlite_cache_mb"`
}

// ServerConfig configures the cmd/ entry point's log level/output mode.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			BM25Weight:          0.5,
			SemanticWeight:      0.5,
			RRFConstant:         60,
			BM25Backend:         "sqlite",
			MaxResults:          20,
			OverfetchMultiplier: 4,
		},
		Embeddings: EmbeddingsConfig{
			Provider:             "static",
			Model:                "static-768",
			Dimensions:           768,
			BatchSize:            32,
			OllamaHost:           "http://localhost:11434",
			ModelDownloadTimeout: 10 * time.Minute,
			ModelLoadTimeout:     5 * time.Minute,
			CacheSize:            1000,
		},
		Watcher: WatcherConfig{
			DebounceWindow:  2 * time.Second,
			ScanInterval:    60 * time.Second,
			EventBufferSize: 1000,
		},
		Memoir: MemoirConfig{
			DefaultType:         "archival",
			DefaultHalfLifeDays: 0,
		},
		Store: StoreConfig{
			SQLiteCacheMB: 64,
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// GetUserConfigPath returns the user/global configuration file path,
// honoring XDG_CONFIG_HOME.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "memoir", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "memoir", "config.yaml")
	}
	return filepath.Join(home, ".config", "memoir", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string { return filepath.Dir(GetUserConfigPath()) }

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool { return fileExists(GetUserConfigPath()) }

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// LoadUserConfig exposes loadUserConfig for callers that only want the
// user/global layer.
func LoadUserConfig() (*Config, error) { return loadUserConfig() }

// Load builds the effective configuration for a collection root directory:
// defaults, then user config, then project config (.memoir.yaml), then
// MEMOIR_* environment variables, then validation.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".memoir.yaml", ".memoir.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero fields of other into c. Zero/empty fields in
// other are treated as "not set" and leave c's existing value in place.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Search.BM25Weight != 0 {
		c.Search.BM25Weight = other.Search.BM25Weight
	}
	if other.Search.SemanticWeight != 0 {
		c.Search.SemanticWeight = other.Search.SemanticWeight
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.BM25Backend != "" {
		c.Search.BM25Backend = other.Search.BM25Backend
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.OverfetchMultiplier != 0 {
		c.Search.OverfetchMultiplier = other.Search.OverfetchMultiplier
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.ModelDownloadTimeout != 0 {
		c.Embeddings.ModelDownloadTimeout = other.Embeddings.ModelDownloadTimeout
	}
	if other.Embeddings.ModelLoadTimeout != 0 {
		c.Embeddings.ModelLoadTimeout = other.Embeddings.ModelLoadTimeout
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Embeddings.ModelsDir != "" {
		c.Embeddings.ModelsDir = other.Embeddings.ModelsDir
	}

	if other.Watcher.DebounceWindow != 0 {
		c.Watcher.DebounceWindow = other.Watcher.DebounceWindow
	}
	if other.Watcher.ScanInterval != 0 {
		c.Watcher.ScanInterval = other.Watcher.ScanInterval
	}
	if other.Watcher.EventBufferSize != 0 {
		c.Watcher.EventBufferSize = other.Watcher.EventBufferSize
	}

	if other.Memoir.Root != "" {
		c.Memoir.Root = other.Memoir.Root
	}
	if other.Memoir.DefaultType != "" {
		c.Memoir.DefaultType = other.Memoir.DefaultType
	}
	if other.Memoir.DefaultHalfLifeDays != 0 {
		c.Memoir.DefaultHalfLifeDays = other.Memoir.DefaultHalfLifeDays
	}

	if other.Store.DataDir != "" {
		c.Store.DataDir = other.Store.DataDir
	}
	if other.Store.SQLiteCacheMB != 0 {
		c.Store.SQLiteCacheMB = other.Store.SQLiteCacheMB
	}

	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies MEMOIR_* environment variables, the highest
// precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MEMOIR_BM25_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.BM25Weight = w
		}
	}
	if v := os.Getenv("MEMOIR_SEMANTIC_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.SemanticWeight = w
		}
	}
	if v := os.Getenv("MEMOIR_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("MEMOIR_BM25_BACKEND"); v != "" {
		c.Search.BM25Backend = v
	}
	if v := os.Getenv("MEMOIR_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("MEMOIR_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("MEMOIR_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("MEMOIR_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Validate checks invariants the rest of the engine relies on.
func (c *Config) Validate() error {
	if c.Search.BM25Weight < 0 || c.Search.BM25Weight > 1 {
		return fmt.Errorf("bm25_weight must be between 0 and 1, got %f", c.Search.BM25Weight)
	}
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return fmt.Errorf("semantic_weight must be between 0 and 1, got %f", c.Search.SemanticWeight)
	}
	if sum := c.Search.BM25Weight + c.Search.SemanticWeight; math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("bm25_weight + semantic_weight must equal 1.0, got %.2f", sum)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("max_results must be non-negative, got %d", c.Search.MaxResults)
	}

	validBackends := map[string]bool{"sqlite": true, "bleve": true}
	if !validBackends[strings.ToLower(c.Search.BM25Backend)] {
		return fmt.Errorf("search.bm25_backend must be 'sqlite' or 'bleve', got %s", c.Search.BM25Backend)
	}

	validProviders := map[string]bool{"static": true, "ollama": true}
	if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'static' or 'ollama', got %s", c.Embeddings.Provider)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// .memoir.yaml/.memoir.yml file, returning the first directory that has
// one. If neither is found before reaching the filesystem root, the
// original (absolute) startDir is returned.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".memoir.yaml")) ||
			fileExists(filepath.Join(currentDir, ".memoir.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/weswalla/logjam/internal/domain"
)

// Config is logjam's complete runtime configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Corpus     CorpusConfig     `yaml:"corpus" json:"corpus"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Watch      WatchConfig      `yaml:"watch" json:"watch"`
	Import     ImportConfig     `yaml:"import" json:"import"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

// CorpusConfig configures the root directory of markdown pages.
type CorpusConfig struct {
	// Root is the directory scanned for markdown pages.
	Root string `yaml:"root" json:"root"`
}

// StorageConfig configures where persistent state lives.
type StorageConfig struct {
	// SQLitePath is the page repository's SQLite database file.
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
	// VectorStorePath is the HNSW index's persisted gob file.
	VectorStorePath string `yaml:"vector_store_path" json:"vector_store_path"`
}

// WatchConfig configures live filesystem watching.
type WatchConfig struct {
	// DebounceMillis is the coalescing window for rapid successive writes.
	DebounceMillis int `yaml:"debounce_ms" json:"debounce_ms"`
}

// ImportConfig configures the bulk import pipeline.
type ImportConfig struct {
	// MaxConcurrentFiles bounds how many files parse concurrently.
	MaxConcurrentFiles int `yaml:"max_concurrent_files" json:"max_concurrent_files"`
}

// EmbeddingsConfig configures the embedding pipeline.
type EmbeddingsConfig struct {
	// Model selects the embedding model (see domain.EmbeddingModel).
	Model string `yaml:"model" json:"model"`
	// MaxWordsPerChunk is the chunker's word budget per chunk.
	MaxWordsPerChunk int `yaml:"max_words_per_chunk" json:"max_words_per_chunk"`
	// OverlapWords is the chunker's sliding-window overlap.
	OverlapWords int `yaml:"overlap_words" json:"overlap_words"`
	// BatchSize is how many chunks are embedded per embedder call.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// CacheSize bounds the LRU embedding cache's entry count.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
	// FilePath is the log file path. Empty uses logging.DefaultLogPath().
	FilePath string `yaml:"file_path" json:"file_path"`
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Corpus: CorpusConfig{
			Root: ".",
		},
		Storage: StorageConfig{
			SQLitePath:      defaultStatePath("pages.db"),
			VectorStorePath: defaultStatePath("vectors.gob"),
		},
		Watch: WatchConfig{
			DebounceMillis: 500,
		},
		Import: ImportConfig{
			MaxConcurrentFiles: runtime.NumCPU(),
		},
		Embeddings: EmbeddingsConfig{
			Model:            string(domain.DefaultEmbeddingModel),
			MaxWordsPerChunk: 150,
			OverlapWords:     50,
			BatchSize:        32,
			CacheSize:        1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaultStatePath returns ~/.logjam/<name>, falling back to a temp
// directory if the home directory can't be resolved.
func defaultStatePath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".logjam", name)
	}
	return filepath.Join(home, ".logjam", name)
}

// Load loads configuration for dir in order of increasing precedence:
//  1. hardcoded defaults
//  2. .logjam.yaml / .logjam.yml in dir
//  3. LOGJAM_* environment variable overrides
func Load(dir string) (*Config, error) {
	cfg := NewConfig()
	cfg.Corpus.Root = dir

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
	yamlPath := filepath.Join(dir, ".logjam.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".logjam.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
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

func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Corpus.Root != "" {
		c.Corpus.Root = other.Corpus.Root
	}
	if other.Storage.SQLitePath != "" {
		c.Storage.SQLitePath = other.Storage.SQLitePath
	}
	if other.Storage.VectorStorePath != "" {
		c.Storage.VectorStorePath = other.Storage.VectorStorePath
	}
	if other.Watch.DebounceMillis != 0 {
		c.Watch.DebounceMillis = other.Watch.DebounceMillis
	}
	if other.Import.MaxConcurrentFiles != 0 {
		c.Import.MaxConcurrentFiles = other.Import.MaxConcurrentFiles
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.MaxWordsPerChunk != 0 {
		c.Embeddings.MaxWordsPerChunk = other.Embeddings.MaxWordsPerChunk
	}
	if other.Embeddings.OverlapWords != 0 {
		c.Embeddings.OverlapWords = other.Embeddings.OverlapWords
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.FilePath != "" {
		c.Log.FilePath = other.Log.FilePath
	}
}

// applyEnvOverrides applies LOGJAM_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LOGJAM_CORPUS_ROOT"); v != "" {
		c.Corpus.Root = v
	}
	if v := os.Getenv("LOGJAM_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOGJAM_VECTOR_STORE_PATH"); v != "" {
		c.Storage.VectorStorePath = v
	}
	if v := os.Getenv("LOGJAM_WATCH_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Watch.DebounceMillis = n
		}
	}
	if v := os.Getenv("LOGJAM_IMPORT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Import.MaxConcurrentFiles = n
		}
	}
	if v := os.Getenv("LOGJAM_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("LOGJAM_EMBEDDINGS_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Embeddings.BatchSize = n
		}
	}
	if v := os.Getenv("LOGJAM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOGJAM_LOG_FILE"); v != "" {
		c.Log.FilePath = v
	}
}

// DebounceWindow returns Watch.DebounceMillis as a time.Duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Watch.DebounceMillis) * time.Millisecond
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Import.MaxConcurrentFiles <= 0 {
		return fmt.Errorf("import.max_concurrent_files must be positive, got %d", c.Import.MaxConcurrentFiles)
	}
	if c.Embeddings.MaxWordsPerChunk <= 0 {
		return fmt.Errorf("embeddings.max_words_per_chunk must be positive, got %d", c.Embeddings.MaxWordsPerChunk)
	}
	if c.Embeddings.OverlapWords < 0 || c.Embeddings.OverlapWords >= c.Embeddings.MaxWordsPerChunk {
		return fmt.Errorf("embeddings.overlap_words must be in [0, max_words_per_chunk), got %d", c.Embeddings.OverlapWords)
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings.batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}
	if !validEmbeddingModel(c.Embeddings.Model) {
		return fmt.Errorf("embeddings.model %q is not a known model", c.Embeddings.Model)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	return nil
}

func validEmbeddingModel(model string) bool {
	switch domain.EmbeddingModel(model) {
	case domain.ModelMiniLM, domain.ModelMPNet, domain.ModelBGESmall, domain.ModelStatic:
		return true
	default:
		return false
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Package config loads the archive's configuration surface: data
// directory, worker pool sizes, chunker tuning, embedder backend
// selection, and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete archive configuration.
type Config struct {
	DataDir         string         `yaml:"data_dir" json:"data_dir"`
	ChannelCapacity int            `yaml:"channel_capacity" json:"channel_capacity"`
	FetchWorkers    int            `yaml:"fetch_workers" json:"fetch_workers"`
	MediaWorkers    int            `yaml:"media_workers" json:"media_workers"`
	EmbedWorkers    int            `yaml:"embed_workers" json:"embed_workers"`
	Chunker         ChunkerConfig  `yaml:"chunker" json:"chunker"`
	Embedder        EmbedderConfig `yaml:"embedder" json:"embedder"`
	Logging         LoggingConfig  `yaml:"logging" json:"logging"`
}

// ChunkerConfig tunes the message chunker.
type ChunkerConfig struct {
	MaxChunkChars int `yaml:"max_chunk_chars" json:"max_chunk_chars"`
	OverlapChars  int `yaml:"overlap_chars" json:"overlap_chars"`
}

// EmbedderConfig selects and tunes the embedding backend.
type EmbedderConfig struct {
	// Provider selects the backend: "mock" or "http".
	Provider string `yaml:"provider" json:"provider"`
	// Dim is the embedding vector dimensionality.
	Dim int `yaml:"dim" json:"dim"`
	// MaxLength is loaded, merged and validated with the rest of the
	// configuration, but no embedder reads it: chunk text is sent to the
	// backend without a length cap.
	MaxLength int `yaml:"max_length" json:"max_length"`
	// ModelAssetsDir is where embedder-local assets (if any) are cached.
	ModelAssetsDir string `yaml:"model_assets_dir" json:"model_assets_dir"`
	// OllamaHost is the HTTP embeddings endpoint used when Provider is "http".
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
	// OllamaModel is the model name requested from the HTTP backend.
	OllamaModel string `yaml:"ollama_model" json:"ollama_model"`
	// CacheSize is the LRU cache capacity wrapping the backend (0 disables caching).
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	FilePath  string `yaml:"file_path" json:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		DataDir:         defaultDataDir(),
		ChannelCapacity: 100,
		FetchWorkers:    4,
		MediaWorkers:    max(1, runtime.NumCPU()/2),
		EmbedWorkers:    max(1, runtime.NumCPU()/2),
		Chunker: ChunkerConfig{
			MaxChunkChars: 1024,
			OverlapChars:  128,
		},
		Embedder: EmbedderConfig{
			Provider:    "mock",
			Dim:         384,
			MaxLength:   512,
			OllamaHost:  "",
			OllamaModel: "",
			CacheSize:   10000,
		},
		Logging: LoggingConfig{
			Level:     "info",
			FilePath:  "",
			MaxSizeMB: 50,
			MaxFiles:  5,
		},
	}
}

// defaultDataDir returns the default archive data directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".archive")
	}
	return filepath.Join(home, ".archive")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// Follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/archive/config.yaml (if set)
//   - ~/.config/archive/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "archive", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "archive", "config.yaml")
	}
	return filepath.Join(home, ".config", "archive", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// Load loads configuration from the specified directory, applying:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/archive/config.yaml)
//  3. Project config (.archive.yaml in dir)
//  4. Environment variables (ARCHIVE_*), highest precedence
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

// loadFromFile attempts to load configuration from .archive.yaml or .archive.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".archive.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".archive.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
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

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.ChannelCapacity != 0 {
		c.ChannelCapacity = other.ChannelCapacity
	}
	if other.FetchWorkers != 0 {
		c.FetchWorkers = other.FetchWorkers
	}
	if other.MediaWorkers != 0 {
		c.MediaWorkers = other.MediaWorkers
	}
	if other.EmbedWorkers != 0 {
		c.EmbedWorkers = other.EmbedWorkers
	}

	if other.Chunker.MaxChunkChars != 0 {
		c.Chunker.MaxChunkChars = other.Chunker.MaxChunkChars
	}
	if other.Chunker.OverlapChars != 0 {
		c.Chunker.OverlapChars = other.Chunker.OverlapChars
	}

	if other.Embedder.Provider != "" {
		c.Embedder.Provider = other.Embedder.Provider
	}
	if other.Embedder.Dim != 0 {
		c.Embedder.Dim = other.Embedder.Dim
	}
	if other.Embedder.MaxLength != 0 {
		c.Embedder.MaxLength = other.Embedder.MaxLength
	}
	if other.Embedder.ModelAssetsDir != "" {
		c.Embedder.ModelAssetsDir = other.Embedder.ModelAssetsDir
	}
	if other.Embedder.OllamaHost != "" {
		c.Embedder.OllamaHost = other.Embedder.OllamaHost
	}
	if other.Embedder.OllamaModel != "" {
		c.Embedder.OllamaModel = other.Embedder.OllamaModel
	}
	if other.Embedder.CacheSize != 0 {
		c.Embedder.CacheSize = other.Embedder.CacheSize
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies ARCHIVE_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ARCHIVE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("ARCHIVE_FETCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.FetchWorkers = n
		}
	}
	if v := os.Getenv("ARCHIVE_MEDIA_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MediaWorkers = n
		}
	}
	if v := os.Getenv("ARCHIVE_EMBED_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.EmbedWorkers = n
		}
	}
	if v := os.Getenv("ARCHIVE_EMBEDDER_PROVIDER"); v != "" {
		c.Embedder.Provider = v
	}
	if v := os.Getenv("ARCHIVE_EMBEDDER_OLLAMA_HOST"); v != "" {
		c.Embedder.OllamaHost = v
	}
	if v := os.Getenv("ARCHIVE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.ChannelCapacity <= 0 {
		return fmt.Errorf("channel_capacity must be positive, got %d", c.ChannelCapacity)
	}
	if c.FetchWorkers <= 0 {
		return fmt.Errorf("fetch_workers must be positive, got %d", c.FetchWorkers)
	}
	if c.MediaWorkers <= 0 {
		return fmt.Errorf("media_workers must be positive, got %d", c.MediaWorkers)
	}
	if c.EmbedWorkers <= 0 {
		return fmt.Errorf("embed_workers must be positive, got %d", c.EmbedWorkers)
	}
	if c.Chunker.MaxChunkChars <= 0 {
		return fmt.Errorf("chunker.max_chunk_chars must be positive, got %d", c.Chunker.MaxChunkChars)
	}
	if c.Chunker.OverlapChars < 0 || c.Chunker.OverlapChars >= c.Chunker.MaxChunkChars {
		return fmt.Errorf("chunker.overlap_chars must be in [0, max_chunk_chars), got %d", c.Chunker.OverlapChars)
	}

	validProviders := map[string]bool{"mock": true, "http": true}
	if !validProviders[strings.ToLower(c.Embedder.Provider)] {
		return fmt.Errorf("embedder.provider must be 'mock' or 'http', got %s", c.Embedder.Provider)
	}
	if c.Embedder.Dim <= 0 {
		return fmt.Errorf("embedder.dim must be positive, got %d", c.Embedder.Dim)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
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

// DefaultWorkerCount returns a sensible worker count derived from available CPUs.
func DefaultWorkerCount() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

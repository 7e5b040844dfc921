package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Index     IndexConfig     `yaml:"index"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr              string  `yaml:"addr"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // per caller
	Burst             int     `yaml:"burst"`
}

// StorageConfig selects and configures the chunk store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "postgres", "bolt", "memory"
	Path   string `yaml:"path"`   // bolt file path
	DSN    string `yaml:"dsn"`    // postgres connection string
	Debug  bool   `yaml:"debug"`  // log SQL queries
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "mock"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`    // OpenAI-compatible endpoint override
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// RerankConfig holds reranking provider configuration.
type RerankConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// RetrieveConfig holds search defaults.
type RetrieveConfig struct {
	Limit          int     `yaml:"limit"`
	Threshold      float64 `yaml:"threshold"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
}

// IndexConfig holds ingestion configuration.
type IndexConfig struct {
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	Concurrency  int      `yaml:"concurrency"`
}

// CacheConfig holds query cache configuration.
type CacheConfig struct {
	MaxEntries      int `yaml:"max_entries"`
	TTLSeconds      int `yaml:"ttl_seconds"`
	AgentTTLSeconds int `yaml:"agent_ttl_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Storage: StorageConfig{
			Driver: "bolt",
			Path:   ".ragengine/chunks.db",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 10,
		},
		Rerank: RerankConfig{
			Enabled:   false,
			Model:     "rerank-english-v3.0",
			APIKeyEnv: "COHERE_API_KEY",
			TimeoutMs: 700,
		},
		Retrieve: RetrieveConfig{
			Limit:          10,
			Threshold:      0.7,
			KeywordWeight:  0.3,
			SemanticWeight: 0.7,
		},
		Index: IndexConfig{
			ChunkSize:    2000,
			ChunkOverlap: 400,
			Includes:     []string{"**/*.md", "**/*.txt"},
			Excludes:     []string{"**/node_modules/**", "**/.git/**"},
			Concurrency:  4,
		},
		Cache: CacheConfig{
			MaxEntries:      512,
			TTLSeconds:      300,
			AgentTTLSeconds: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragengine.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragengine.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragengine", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

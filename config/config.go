package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the lexrag tool.
type Config struct {
	Weaviate   WeaviateConfig   `yaml:"weaviate"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WeaviateConfig holds the vector store connection settings. Credentials are
// read from the environment, never from the file.
type WeaviateConfig struct {
	URLEnv         string `yaml:"url_env"`     // env var holding the cluster URL
	APIKeyEnv      string `yaml:"api_key_env"` // env var holding the API key
	Collection     string `yaml:"collection"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model          string `yaml:"model"`       // e.g. "bge-m3"
	BaseURL        string `yaml:"base_url"`    // OpenAI-compatible endpoint serving the model
	APIKeyEnv      string `yaml:"api_key_env"` // Environment variable for API key
	Dimension      int    `yaml:"dimension"`
	BatchSize      int    `yaml:"batch_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RerankConfig holds cross-encoder reranking configuration.
type RerankConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Provider       string `yaml:"provider"` // "tei", "cohere"
	Endpoint       string `yaml:"endpoint"` // TEI-style rerank endpoint
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	BaseURL        string `yaml:"base_url"` // empty means the public OpenAI API
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	Limit int `yaml:"limit"` // candidates fetched before reranking; reranking never changes the count
}

// IngestConfig holds corpus ingestion configuration.
type IngestConfig struct {
	Includes  []string `yaml:"includes"`
	Excludes  []string `yaml:"excludes"`
	BatchSize int      `yaml:"batch_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Weaviate: WeaviateConfig{
			URLEnv:         "WEAVIATE_URL",
			APIKeyEnv:      "WEAVIATE_API_KEY",
			Collection:     "ROC_Constitution_BG3_M3",
			TimeoutSeconds: 15,
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			Model:          "bge-m3",
			BaseURL:        "",
			APIKeyEnv:      "OPENAI_API_KEY",
			Dimension:      1024,
			BatchSize:      64,
			TimeoutSeconds: 60,
		},
		Rerank: RerankConfig{
			Enabled:        true,
			Provider:       "tei",
			Endpoint:       "http://localhost:8087",
			Model:          "BAAI/bge-reranker-v2-m3",
			APIKeyEnv:      "COHERE_API_KEY",
			TimeoutSeconds: 30,
		},
		Generation: GenerationConfig{
			Model:          "gpt-3.5-turbo",
			APIKeyEnv:      "OPENAI_API_KEY",
			BaseURL:        "",
			TimeoutSeconds: 60,
		},
		Retrieve: RetrieveConfig{
			Limit: 5,
		},
		Ingest: IngestConfig{
			Includes:  []string{"**/*.json"},
			Excludes:  []string{"**/node_modules/**", "**/.git/**", "**/.lexrag/**"},
			BatchSize: 64,
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

// LoadFromDir loads configuration from a directory (looks for lexrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "lexrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".lexrag", "config.yaml")
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
	return os.WriteFile(path, data, 0644)
}

// Validate checks that the configuration is usable and that required
// credentials are present in the environment. Failures here are fatal at
// startup; nothing should be retried per query.
func (c *Config) Validate() error {
	if os.Getenv(c.Weaviate.URLEnv) == "" {
		return fmt.Errorf("%s is not set", c.Weaviate.URLEnv)
	}
	if os.Getenv(c.Weaviate.APIKeyEnv) == "" {
		return fmt.Errorf("%s is not set", c.Weaviate.APIKeyEnv)
	}
	if os.Getenv(c.Generation.APIKeyEnv) == "" {
		return fmt.Errorf("%s is not set", c.Generation.APIKeyEnv)
	}
	if c.Weaviate.Collection == "" {
		return fmt.Errorf("weaviate.collection must not be empty")
	}
	if c.Retrieve.Limit <= 0 {
		return fmt.Errorf("retrieve.limit must be positive, got %d", c.Retrieve.Limit)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	switch c.Embedding.Provider {
	case "openai", "ollama", "mock":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	if c.Rerank.Enabled {
		switch c.Rerank.Provider {
		case "tei", "cohere":
		default:
			return fmt.Errorf("unsupported rerank provider: %s", c.Rerank.Provider)
		}
	}
	return nil
}

// WeaviateURL returns the cluster URL from the environment.
func (c *Config) WeaviateURL() string {
	return os.Getenv(c.Weaviate.URLEnv)
}

// WeaviateAPIKey returns the API key from the environment.
func (c *Config) WeaviateAPIKey() string {
	return os.Getenv(c.Weaviate.APIKeyEnv)
}

// EmbedCachePath returns the path to the ingest embedding cache.
func EmbedCachePath(dir string) string {
	return filepath.Join(dir, ".lexrag", "embeddings.db")
}

// EnsureDataDir ensures the .lexrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".lexrag"), 0755)
}

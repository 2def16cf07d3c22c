package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	RAG      RAGConfig      `yaml:"rag" envPrefix:"RAG_"`
	EmbedLLM LLMConfig      `yaml:"embed_llm" envPrefix:"EMBED_"`
	ChatLLM  LLMConfig      `yaml:"chat_llm" envPrefix:"CHAT_"`
	Vector   VectorConfig   `yaml:"vector" envPrefix:"VECTOR_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
}

// RAGConfig tunes the retrieval pipeline. Values are defaults for a query;
// per-call overrides never mutate this struct.
type RAGConfig struct {
	ChunkSize           int     `yaml:"chunk_size" env:"CHUNK_SIZE"`
	ChunkOverlap        int     `yaml:"chunk_overlap" env:"CHUNK_OVERLAP"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD"`
	MaxContextTokens    int     `yaml:"max_context_tokens" env:"MAX_CONTEXT_TOKENS"`
	MaxChunks           int     `yaml:"max_chunks" env:"MAX_CHUNKS"`
	DedupOverlap        float64 `yaml:"dedup_overlap" env:"DEDUP_OVERLAP"`
}

type LLMConfig struct {
	Provider string `yaml:"provider" env:"PROVIDER"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL"`
	Key      string `yaml:"key" env:"KEY"`
	Model    string `yaml:"model" env:"MODEL"`
}

type VectorConfig struct {
	Backend    string `yaml:"backend" env:"BACKEND"`
	Path       string `yaml:"path" env:"PATH"`
	Collection string `yaml:"collection" env:"COLLECTION"`
	InMemory   bool   `yaml:"in_memory" env:"IN_MEMORY"`
	Dimension  int    `yaml:"dimension" env:"DIMENSION"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DRIVER"`
	DSN      string `yaml:"dsn" env:"DSN"`
	Password string `yaml:"password" env:"PASSWORD"`
	Debug    bool   `yaml:"debug" env:"DEBUG"`
}

// Default returns the process-wide defaults loaded at startup.
func Default() *Config {
	return &Config{
		RAG: RAGConfig{
			ChunkSize:           500,
			ChunkOverlap:        50,
			SimilarityThreshold: 0.6,
			MaxContextTokens:    2000,
			MaxChunks:           5,
			DedupOverlap:        0.9,
		},
		EmbedLLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		ChatLLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "llama3.2",
		},
		Vector: VectorConfig{
			Backend:    "chromem",
			Path:       "./chromemdb",
			Collection: "documents",
			Dimension:  768,
		},
		Database: DatabaseConfig{
			Driver: "pgdriver",
		},
	}
}

// Load builds the config from defaults, then the YAML file at path (skipped
// if it does not exist), then environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Package config loads the application configuration with the hierarchy:
// flags (handled by the caller) > env vars > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/sevigo/code-atlas/internal/graph"
	"github.com/sevigo/code-atlas/internal/logger"
	"github.com/sevigo/code-atlas/internal/search"
)

const llmProviderGemini = "gemini"

// Config is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Graph      graph.Config     `mapstructure:"graph"`
	AI         AIConfig         `mapstructure:"ai"`
	Chunkers   ChunkersConfig   `mapstructure:"chunkers"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Search     search.Config    `mapstructure:"search"`
	Logging    logger.Config    `mapstructure:"logging"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type AIConfig struct {
	LLMProvider      string  `mapstructure:"llm_provider"`
	EmbedderProvider string  `mapstructure:"embedder_provider"`
	OllamaHost       string  `mapstructure:"ollama_host"`
	GeminiAPIKey     string  `mapstructure:"gemini_api_key"`
	GeneratorModel   string  `mapstructure:"generator_model"`
	EmbedderModel    string  `mapstructure:"embedder_model"`
	Temperature      float64 `mapstructure:"temperature"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxConcurrent    int     `mapstructure:"max_concurrent"`
}

type ChunkersConfig struct {
	MaxConcurrent  int                 `mapstructure:"max_concurrent"`
	TimeoutSeconds int                 `mapstructure:"timeout_seconds"`
	Commands       map[string][]string `mapstructure:"commands"`
}

type SummarizerConfig struct {
	BatchSize          int `mapstructure:"batch_size"`
	EmbeddingBatchSize int `mapstructure:"embedding_batch_size"`
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Graph.URI == "" {
		return errors.New("graph.uri must be configured")
	}
	if c.AI.LLMProvider == llmProviderGemini && c.AI.GeminiAPIKey == "" {
		return errors.New("ai.gemini_api_key is required for the gemini provider")
	}
	return nil
}

// LoadConfig loads configuration from defaults, an optional YAML config
// file (./config.yaml or $HOME/.code-atlas/config.yaml), and environment
// variables (GRAPH_URI maps to graph.uri, and so on).
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.code-atlas")

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Info("No config file found, using defaults and environment variables")
	} else {
		slog.Info("Loaded configuration", "file", v.ConfigFileUsed())
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")

	// Graph store
	v.SetDefault("graph.uri", "bolt://localhost:7687")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("graph.password", "password")
	v.SetDefault("graph.database", "neo4j")

	// AI
	v.SetDefault("ai.llm_provider", "ollama")
	v.SetDefault("ai.embedder_provider", "ollama")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")
	v.SetDefault("ai.generator_model", "qwen2.5-coder:7b")
	v.SetDefault("ai.embedder_model", "nomic-embed-text")
	v.SetDefault("ai.temperature", 0.1)
	v.SetDefault("ai.max_tokens", 500)
	v.SetDefault("ai.timeout_seconds", 120)
	v.SetDefault("ai.max_concurrent", 5)

	// Chunkers
	v.SetDefault("chunkers.max_concurrent", 5)
	v.SetDefault("chunkers.timeout_seconds", 300)
	v.SetDefault("chunkers.commands", map[string][]string{
		"python":     {"atlas-chunker-python"},
		"csharp":     {"atlas-chunker-csharp"},
		"javascript": {"atlas-chunker-node"},
		"typescript": {"atlas-chunker-node"},
		"go":         {"atlas-chunker-go"},
	})

	// Summarizer
	v.SetDefault("summarizer.batch_size", 50)
	v.SetDefault("summarizer.embedding_batch_size", 32)

	// Search
	v.SetDefault("search.max_vector_results", 20)
	v.SetDefault("search.max_entity_results", 10)
	v.SetDefault("search.max_total_results", 30)
	v.SetDefault("search.min_similarity", 0.6)
	v.SetDefault("search.enable_context_expansion", true)
	v.SetDefault("search.max_context_nodes", 50)
	v.SetDefault("search.boost_exact_matches", 1.5)
	v.SetDefault("search.boost_entity_matches", 1.3)
	v.SetDefault("search.boost_factor", 1.2)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

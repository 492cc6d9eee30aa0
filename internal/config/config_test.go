package config

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("server port = %s", cfg.Server.Port)
	}
	if cfg.Graph.URI != "bolt://localhost:7687" {
		t.Errorf("graph uri = %s", cfg.Graph.URI)
	}
	if cfg.AI.LLMProvider != "ollama" || cfg.AI.EmbedderModel != "nomic-embed-text" {
		t.Errorf("ai defaults = %+v", cfg.AI)
	}
	if cfg.AI.Temperature != 0.1 || cfg.AI.MaxTokens != 500 || cfg.AI.MaxConcurrent != 5 {
		t.Errorf("llm knobs = %+v", cfg.AI)
	}
	if cfg.Chunkers.MaxConcurrent != 5 || cfg.Chunkers.TimeoutSeconds != 300 {
		t.Errorf("chunker defaults = %+v", cfg.Chunkers)
	}
	if len(cfg.Chunkers.Commands["python"]) == 0 {
		t.Errorf("missing default python parser command: %v", cfg.Chunkers.Commands)
	}
	if cfg.Summarizer.BatchSize != 50 || cfg.Summarizer.EmbeddingBatchSize != 32 {
		t.Errorf("summarizer defaults = %+v", cfg.Summarizer)
	}

	// Every scoring constant must default to the documented value.
	if cfg.Search.MinSimilarity != 0.6 ||
		cfg.Search.BoostFactor != 1.2 ||
		cfg.Search.BoostEntityMatches != 1.3 ||
		cfg.Search.BoostExactMatches != 1.5 ||
		cfg.Search.MaxContextNodes != 50 ||
		cfg.Search.MaxTotalResults != 30 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Graph.URI = "bolt://localhost:7687"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg.Graph.URI = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing graph uri accepted")
	}

	cfg.Graph.URI = "bolt://localhost:7687"
	cfg.AI.LLMProvider = "gemini"
	if err := cfg.Validate(); err == nil {
		t.Error("gemini without api key accepted")
	}
	cfg.AI.GeminiAPIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("gemini with api key rejected: %v", err)
	}
}

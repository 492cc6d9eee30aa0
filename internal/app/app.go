// Package app initializes and orchestrates the main components of the Code
// Atlas application. It wires together the configuration, the graph store,
// the ingestion pipeline, and the search service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/code-atlas/internal/chunker"
	"github.com/sevigo/code-atlas/internal/config"
	"github.com/sevigo/code-atlas/internal/graph"
	"github.com/sevigo/code-atlas/internal/indexer"
	"github.com/sevigo/code-atlas/internal/scanner"
	"github.com/sevigo/code-atlas/internal/search"
	"github.com/sevigo/code-atlas/internal/server"
	"github.com/sevigo/code-atlas/internal/summarizer"
)

// App holds the main application components.
type App struct {
	Cfg      *config.Config
	Store    *graph.DB
	Pipeline *indexer.Pipeline
	Search   *search.Service

	logger *slog.Logger
	server *server.Server
}

// newOllamaHTTPClient creates an HTTP client with longer timeouts for
// Ollama requests; local models can take a while per call.
func newOllamaHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   15 * time.Minute,
	}
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, func(), error) {
	logger.Info("initializing Code Atlas",
		"llm_provider", cfg.AI.LLMProvider,
		"embedder_provider", cfg.AI.EmbedderProvider,
		"generator_model", cfg.AI.GeneratorModel,
		"embedder_model", cfg.AI.EmbedderModel,
		"graph_uri", cfg.Graph.URI,
	)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, storeCleanup, err := graph.NewDB(ctx, cfg.Graph, logger.With("component", "graph"))
	if err != nil {
		return nil, nil, err
	}

	generatorLLM, err := createLLM(ctx, cfg, logger)
	if err != nil {
		storeCleanup()
		return nil, nil, err
	}
	embedder, err := createEmbedder(ctx, cfg, logger)
	if err != nil {
		storeCleanup()
		return nil, nil, err
	}

	fileScanner := scanner.New(store, logger.With("component", "scanner"))
	orchestrator := chunker.New(parserConfigs(cfg), cfg.Chunkers.MaxConcurrent, logger.With("component", "chunker"))
	ingestor := graph.NewIngestor(store, graph.DefaultBatchSize, logger.With("component", "ingestor"))

	generator := summarizer.NewLLMGenerator(generatorLLM,
		cfg.AI.Temperature, cfg.AI.MaxTokens,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	worker := summarizer.NewWorker(generator, cfg.AI.MaxConcurrent, logger.With("component", "summarizer"))
	scheduler := summarizer.NewScheduler(store, worker, cfg.Summarizer.BatchSize, logger.With("component", "summarizer"))
	tokenizer := summarizer.NewTokenizerAdapter(generatorLLM)
	embedWorker := summarizer.NewEmbeddingWorker(store, embedder, tokenizer,
		cfg.Summarizer.EmbeddingBatchSize, logger.With("component", "embedder"))

	pipeline := indexer.New(store, fileScanner, orchestrator, ingestor, scheduler, embedWorker,
		logger.With("component", "indexer"))

	vectorEngine := search.NewVectorEngine(store, embedder, logger.With("component", "vector-search"))
	traversalEngine := search.NewTraversalEngine(store, logger.With("component", "traversal"))
	hybridEngine := search.NewHybridEngine(store, vectorEngine, traversalEngine, logger.With("component", "hybrid-search"))
	searchService := search.NewService(store, hybridEngine, vectorEngine, traversalEngine, logger.With("component", "search"))

	httpServer := server.NewServer(cfg.Server.Host, cfg.Server.Port, searchService, cfg.Search,
		logger.With("component", "server"))

	logger.Info("Code Atlas initialized successfully")
	return &App{
		Cfg:      cfg,
		Store:    store,
		Pipeline: pipeline,
		Search:   searchService,
		logger:   logger,
		server:   httpServer,
	}, storeCleanup, nil
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.logger.Info("starting Code Atlas API",
		"host", a.Cfg.Server.Host,
		"port", a.Cfg.Server.Port,
	)
	return a.server.Start()
}

// OverrideListenAddr rebuilds the HTTP server on a different address, for
// CLI flag overrides. Must be called before Start.
func (a *App) OverrideListenAddr(host, port string) {
	if host != "" {
		a.Cfg.Server.Host = host
	}
	if port != "" {
		a.Cfg.Server.Port = port
	}
	a.server = server.NewServer(a.Cfg.Server.Host, a.Cfg.Server.Port, a.Search, a.Cfg.Search,
		a.logger.With("component", "server"))
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down Code Atlas")
	if a.server == nil {
		return nil
	}
	if err := a.server.Stop(); err != nil {
		a.logger.Error("error during HTTP server shutdown", "error", err)
		return err
	}
	return nil
}

// parserConfigs builds the chunker registry from configuration.
func parserConfigs(cfg *config.Config) []chunker.ParserConfig {
	timeout := time.Duration(cfg.Chunkers.TimeoutSeconds) * time.Second
	parsers := make([]chunker.ParserConfig, 0, len(cfg.Chunkers.Commands))
	for language, command := range cfg.Chunkers.Commands {
		if len(command) == 0 {
			continue
		}
		parsers = append(parsers, chunker.ParserConfig{
			Language: language,
			Command:  command,
			Timeout:  timeout,
		})
	}
	return parsers
}

// createLLM creates the generator model for the configured provider.
func createLLM(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	switch cfg.AI.LLMProvider {
	case "gemini":
		logger.Info("using Gemini LLM provider", "model", cfg.AI.GeneratorModel)
		return gemini.New(ctx,
			gemini.WithModel(cfg.AI.GeneratorModel),
			gemini.WithAPIKey(cfg.AI.GeminiAPIKey),
		)
	case "ollama":
		logger.Info("using Ollama LLM provider", "model", cfg.AI.GeneratorModel)
		return ollama.New(
			ollama.WithServerURL(cfg.AI.OllamaHost),
			ollama.WithModel(cfg.AI.GeneratorModel),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.AI.LLMProvider)
	}
}

// createEmbedder creates the embedder for the configured provider.
func createEmbedder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embeddings.Embedder, error) {
	logger.Info("connecting to embedder", "provider", cfg.AI.EmbedderProvider, "model", cfg.AI.EmbedderModel)

	var embedderLLM embeddings.Embedder
	var err error
	switch cfg.AI.EmbedderProvider {
	case "gemini":
		embedderLLM, err = gemini.New(ctx,
			gemini.WithEmbeddingModel(cfg.AI.EmbedderModel),
			gemini.WithAPIKey(cfg.AI.GeminiAPIKey),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini embedder: %w", err)
		}
	case "ollama":
		embedderLLM, err = ollama.New(
			ollama.WithServerURL(cfg.AI.OllamaHost),
			ollama.WithModel(cfg.AI.EmbedderModel),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama embedder: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", cfg.AI.EmbedderProvider)
	}

	embedder, err := embeddings.NewEmbedder(embedderLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

package summarizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/code-atlas/internal/core"
	"github.com/sevigo/code-atlas/internal/graph"
)

// DefaultEmbeddingBatchSize is the number of texts embedded per model call.
const DefaultEmbeddingBatchSize = 32

// maxRawCodeChars bounds the raw-code fallback fed to the embedder.
const maxRawCodeChars = 1000

// maxEmbeddingTokens is the embedder's tokenizer window.
const maxEmbeddingTokens = 512

// Embedder is the narrow embedding surface, satisfied by goframe's
// embeddings.Embedder.
//
//go:generate mockgen -destination=../../mocks/mock_embedder.go -package=mocks github.com/sevigo/code-atlas/internal/summarizer Embedder
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// embeddingCandidate is a node awaiting a vector.
type embeddingCandidate struct {
	ID      string
	Name    string
	Summary string
	RawCode string
}

// EmbeddingWorker fills the embedding property of indexed nodes in batches.
// The embedding text is the node's summary; when the summary is missing it
// falls back to the first 1000 characters of raw code, then to the name.
type EmbeddingWorker struct {
	store     graph.Store
	embedder  Embedder
	tokenizer *TokenizerAdapter
	batchSize int
	logger    *slog.Logger
}

// NewEmbeddingWorker creates an EmbeddingWorker. A non-positive batchSize
// selects the default of 32.
func NewEmbeddingWorker(store graph.Store, embedder Embedder, tokenizer *TokenizerAdapter, batchSize int, logger *slog.Logger) *EmbeddingWorker {
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	return &EmbeddingWorker{
		store:     store,
		embedder:  embedder,
		tokenizer: tokenizer,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run embeds nodes batch by batch until no vector-indexed node is missing
// an embedding. Returns the number of nodes updated.
func (w *EmbeddingWorker) Run(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		updated, err := w.processBatch(ctx)
		if err != nil {
			return total, err
		}
		if updated == 0 {
			break
		}
		total += updated
	}
	w.logger.Info("embedding pass complete", "nodes", total)
	return total, nil
}

func (w *EmbeddingWorker) processBatch(ctx context.Context) (int, error) {
	candidates, err := w.fetchCandidates(ctx)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	texts := make([]string, len(candidates))
	for i, node := range candidates {
		texts[i] = w.tokenizer.Truncate(ctx, w.embeddingText(node), maxEmbeddingTokens)
	}

	vectors, err := w.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed batch of %d: %w", len(texts), err)
	}
	if len(vectors) != len(candidates) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(candidates))
	}

	updated := 0
	for i, node := range candidates {
		if len(vectors[i]) == 0 {
			w.logger.Warn("empty embedding, skipping node", "node", node.ID)
			continue
		}
		_, err := w.store.Run(ctx,
			`MATCH (n {id: $id}) SET n.embedding = $embedding`,
			map[string]any{"id": node.ID, "embedding": vectors[i]})
		if err != nil {
			w.logger.Error("writing embedding", "node", node.ID, "error", err)
			continue
		}
		updated++
	}
	w.logger.Info("embedded batch", "updated", updated, "candidates", len(candidates))
	return updated, nil
}

func (w *EmbeddingWorker) fetchCandidates(ctx context.Context) ([]embeddingCandidate, error) {
	rows, err := w.store.Run(ctx,
		`MATCH (n)
		 WHERE labels(n)[0] IN $labels
		   AND (n.embedding IS NULL OR size(n.embedding) = 0)
		 RETURN n.id AS id, n.name AS name,
		        n.generated_summary AS summary, n.raw_code AS raw_code
		 LIMIT $limit`,
		map[string]any{"labels": vectorLabelNames(), "limit": w.batchSize})
	if err != nil {
		return nil, fmt.Errorf("fetch embedding candidates: %w", err)
	}

	candidates := make([]embeddingCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, embeddingCandidate{
			ID:      row.String("id"),
			Name:    row.String("name"),
			Summary: row.String("summary"),
			RawCode: row.String("raw_code"),
		})
	}
	return candidates, nil
}

func (w *EmbeddingWorker) embeddingText(node embeddingCandidate) string {
	if node.Summary != "" {
		return node.Summary
	}
	if node.RawCode != "" {
		if len(node.RawCode) > maxRawCodeChars {
			return node.RawCode[:maxRawCodeChars]
		}
		return node.RawCode
	}
	return node.Name
}

func vectorLabelNames() []string {
	names := make([]string, len(core.VectorLabels))
	for i, label := range core.VectorLabels {
		names[i] = string(label)
	}
	return names
}

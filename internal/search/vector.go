package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sevigo/code-atlas/internal/core"
	"github.com/sevigo/code-atlas/internal/graph"
)

// QueryEmbedder turns query text into the fixed-dimension vector the
// per-label indexes were built with.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorEngine runs per-label nearest-neighbour queries with thresholding
// and exact-match boosts.
type VectorEngine struct {
	store    graph.Store
	embedder QueryEmbedder
	logger   *slog.Logger
}

// NewVectorEngine creates a VectorEngine.
func NewVectorEngine(store graph.Store, embedder QueryEmbedder, logger *slog.Logger) *VectorEngine {
	return &VectorEngine{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// SearchByText embeds the query and searches the requested labels. A nil
// labels slice searches every vector-indexed label.
func (e *VectorEngine) SearchByText(ctx context.Context, query string, cfg VectorConfig, labels []string) ([]Result, error) {
	vec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embedder returned an empty vector for query %q", query)
	}
	return e.SearchByEmbedding(ctx, vec, query, cfg, labels)
}

// SearchByEmbedding searches with a pre-computed vector. queryText is only
// used for exact-match boosting and may be empty.
func (e *VectorEngine) SearchByEmbedding(ctx context.Context, vec []float32, queryText string, cfg VectorConfig, labels []string) ([]Result, error) {
	if len(labels) == 0 {
		labels = vectorLabelNames()
	}

	var all []Result
	for _, label := range labels {
		if !isVectorLabel(label) {
			e.logger.Warn("no vector index for label, skipping", "label", label)
			continue
		}
		rows, err := e.store.VectorKNN(ctx, graph.VectorIndexName(core.Label(label)), cfg.MaxResults, vec)
		if err != nil {
			e.logger.Error("vector query failed", "label", label, "error", err)
			continue
		}
		for _, row := range rows {
			score := row.Float("score")
			if score < cfg.MinSimilarity {
				continue
			}
			result := resultFromRow(row, cfg.IncludeRawCode)
			result.Score = score
			if cfg.BoostExactMatches && isExactTextMatch(queryText, result.Name, result.Summary) {
				result.Score *= cfg.BoostFactor
			}
			all = append(all, result)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > cfg.MaxResults {
		all = all[:cfg.MaxResults]
	}
	return all, nil
}

// SimilarToNode reuses a node's stored embedding as the query vector and
// searches its own label, excluding the node itself.
func (e *VectorEngine) SimilarToNode(ctx context.Context, nodeID string, cfg VectorConfig) ([]Result, error) {
	rows, err := e.store.Run(ctx,
		`MATCH (n {id: $id})
		 RETURN n.embedding AS embedding, labels(n)[0] AS node_type`,
		map[string]any{"id": nodeID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("node %s not found", nodeID)
	}
	vec := rows[0].Floats("embedding")
	if len(vec) == 0 {
		return nil, fmt.Errorf("node %s has no embedding", nodeID)
	}

	results, err := e.SearchByEmbedding(ctx, vec, "", cfg, []string{rows[0].String("node_type")})
	if err != nil {
		return nil, err
	}
	filtered := results[:0]
	for _, r := range results {
		if r.NodeID != nodeID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// isExactTextMatch reports whether the query and the node name contain one
// another (case-insensitively), or a query word longer than three characters
// appears in the summary.
func isExactTextMatch(query, name, summary string) bool {
	if query == "" {
		return false
	}
	queryLower := strings.ToLower(query)
	nameLower := strings.ToLower(name)
	if nameLower != "" && (strings.Contains(queryLower, nameLower) || strings.Contains(nameLower, queryLower)) {
		return true
	}
	if summary != "" {
		summaryLower := strings.ToLower(summary)
		for _, word := range strings.Fields(queryLower) {
			if len(word) > 3 && strings.Contains(summaryLower, word) {
				return true
			}
		}
	}
	return false
}

// resultFromRow maps a flattened node row to a Result.
func resultFromRow(row graph.Row, includeRaw bool) Result {
	result := Result{
		NodeID:   row.String("id"),
		Name:     row.String("name"),
		FullName: row.String("full_name"),
		NodeType: row.String("node_type"),
		Summary:  row.String("summary"),
	}
	if result.Summary == "" {
		result.Summary = row.String("generated_summary")
	}
	if includeRaw {
		result.RawCode = row.String("raw_code")
	}
	if start, end := row.Int("start_line"), row.Int("end_line"); start > 0 && end > 0 {
		result.Location = &Location{StartLine: int(start), EndLine: int(end)}
	}
	metadata := make(map[string]any)
	for _, key := range []string{"path", "visibility", "type"} {
		if value := row.String(key); value != "" {
			metadata[key] = value
		}
	}
	if len(metadata) > 0 {
		result.Metadata = metadata
	}
	return result
}

func vectorLabelNames() []string {
	names := make([]string, len(core.VectorLabels))
	for i, label := range core.VectorLabels {
		names[i] = string(label)
	}
	return names
}

func isVectorLabel(label string) bool {
	for _, known := range core.VectorLabels {
		if string(known) == label {
			return true
		}
	}
	return false
}

package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/code-atlas/internal/core"
)

// DefaultBatchSize bounds the number of rows per bulk upsert.
const DefaultBatchSize = 1000

// IngestStats reports the outcome of one ingestion run.
type IngestStats struct {
	NodesCreated         int
	RelationshipsCreated int
	FilesProcessed       int
	Errors               int
}

// Ingestor applies parser fragments to the graph store with batched,
// idempotent upserts.
type Ingestor struct {
	store     Store
	batchSize int
	logger    *slog.Logger
}

// NewIngestor creates an Ingestor. A non-positive batchSize selects the
// default of 1000.
func NewIngestor(store Store, batchSize int, logger *slog.Logger) *Ingestor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ingestor{
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Ingest merges all fragments and applies them: nodes first, grouped by
// label, then relationships, grouped by type. A failing batch is counted
// and skipped; the run continues with the next batch.
func (ing *Ingestor) Ingest(ctx context.Context, fragments []*core.Fragment) IngestStats {
	var stats IngestStats

	nodesByLabel := make(map[core.Label][]map[string]any)
	relsByType := make(map[core.RelType][]map[string]any)
	processed := make(map[string]struct{})

	for _, frag := range fragments {
		for _, node := range frag.Nodes {
			nodesByLabel[node.Label] = append(nodesByLabel[node.Label], nodeRow(node))
		}
		for _, rel := range frag.Relationships {
			relsByType[rel.Type] = append(relsByType[rel.Type], map[string]any{
				"source_id":  rel.SourceID,
				"target_id":  rel.TargetID,
				"properties": nonNilProps(rel.Properties),
			})
		}
		for _, path := range frag.ProcessedFiles {
			processed[path] = struct{}{}
		}
	}
	stats.FilesProcessed = len(processed)

	for label, rows := range nodesByLabel {
		for _, batch := range batches(rows, ing.batchSize) {
			count, err := ing.upsertNodes(ctx, label, batch)
			if err != nil {
				ing.logger.Error("node batch failed", "label", label, "size", len(batch), "error", err)
				stats.Errors++
				continue
			}
			stats.NodesCreated += count
		}
	}

	for relType, rows := range relsByType {
		for _, batch := range batches(rows, ing.batchSize) {
			count, err := ing.upsertRelationships(ctx, relType, batch)
			if err != nil {
				ing.logger.Error("relationship batch failed", "type", relType, "size", len(batch), "error", err)
				stats.Errors++
				continue
			}
			stats.RelationshipsCreated += count
		}
	}

	ing.logger.Info("ingestion complete",
		"nodes", stats.NodesCreated,
		"relationships", stats.RelationshipsCreated,
		"files", stats.FilesProcessed,
		"errors", stats.Errors,
	)
	return stats
}

func (ing *Ingestor) upsertNodes(ctx context.Context, label core.Label, rows []map[string]any) (int, error) {
	query := fmt.Sprintf(
		`UNWIND $rows AS row
		 MERGE (n:%s {id: row.id})
		 SET n += row
		 RETURN count(n) AS count`, label)
	result, err := ing.store.Run(ctx, query, map[string]any{"rows": rows})
	if err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return int(result[0].Int("count")), nil
}

// upsertRelationships merges one relationship type. Rows whose endpoints do
// not exist are dropped by the MATCH clauses rather than fabricated.
func (ing *Ingestor) upsertRelationships(ctx context.Context, relType core.RelType, rows []map[string]any) (int, error) {
	query := fmt.Sprintf(
		`UNWIND $rows AS row
		 MATCH (source {id: row.source_id})
		 MATCH (target {id: row.target_id})
		 MERGE (source)-[r:%s]->(target)
		 SET r += row.properties
		 RETURN count(r) AS count`, relType)
	result, err := ing.store.Run(ctx, query, map[string]any{"rows": rows})
	if err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return int(result[0].Int("count")), nil
}

// DeleteFileSubgraph removes the File node for path plus every node
// reachable from it via outbound edges, and returns the number of nodes
// deleted. Detaching guarantees no dangling edges remain.
func (ing *Ingestor) DeleteFileSubgraph(ctx context.Context, path string) (int, error) {
	result, err := ing.store.Run(ctx,
		`MATCH (f:File {path: $path})
		 OPTIONAL MATCH (f)-[*]->(n)
		 WITH f, collect(DISTINCT n) AS related
		 FOREACH (x IN related | DETACH DELETE x)
		 DETACH DELETE f
		 RETURN 1 + size(related) AS deleted`,
		map[string]any{"path": path})
	if err != nil {
		return 0, fmt.Errorf("delete subgraph for %s: %w", path, err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	deleted := int(result[0].Int("deleted"))
	ing.logger.Info("deleted file subgraph", "path", path, "nodes", deleted)
	return deleted, nil
}

// nodeRow flattens a node into the property map stored on the graph node.
func nodeRow(node core.Node) map[string]any {
	row := map[string]any{
		"id":    node.ID,
		"label": string(node.Label),
		"name":  node.Name,
	}
	if node.FullName != "" {
		row["full_name"] = node.FullName
	}
	if node.RawCode != "" {
		row["raw_code"] = node.RawCode
	}
	if node.Location != nil {
		row["start_line"] = node.Location.StartLine
		row["end_line"] = node.Location.EndLine
		if node.Location.StartColumn != nil {
			row["start_column"] = *node.Location.StartColumn
		}
		if node.Location.EndColumn != nil {
			row["end_column"] = *node.Location.EndColumn
		}
	}
	for key, value := range node.Extra {
		if _, taken := row[key]; !taken && value != nil {
			row[key] = value
		}
	}
	return row
}

func nonNilProps(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	return props
}

func batches[T any](rows []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}

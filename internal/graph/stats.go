package graph

import (
	"context"
	"fmt"

	"github.com/sevigo/code-atlas/internal/core"
)

// Stats summarizes the current state of the graph store.
type Stats struct {
	NodeCounts             map[string]int64 `json:"total_nodes_by_type"`
	RelationshipCounts     map[string]int64 `json:"relationship_counts"`
	FileCount              int64            `json:"file_count"`
	Languages              []string         `json:"languages"`
	TotalSize              int64            `json:"total_size_bytes"`
	NodesWithEmbeddings    map[string]int64 `json:"nodes_with_embeddings"`
	EmbeddedWithoutSummary int64            `json:"embedded_without_summary"`
	Indexes                []string         `json:"available_indexes"`
	StoreVersion           string           `json:"store_version"`
}

// CollectStats gathers per-label node counts, relationship counts, file
// statistics, embedding coverage, and index inventory.
//
// EmbeddedWithoutSummary counts nodes whose embedding was computed from raw
// code while generated_summary is still unset; vector hits on those nodes
// do not reflect a reviewed summary.
func CollectStats(ctx context.Context, store Store) (*Stats, error) {
	stats := &Stats{
		NodeCounts:          make(map[string]int64),
		RelationshipCounts:  make(map[string]int64),
		NodesWithEmbeddings: make(map[string]int64),
	}

	rows, err := store.Run(ctx,
		`MATCH (n) RETURN labels(n)[0] AS label, count(n) AS count ORDER BY count DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("node counts: %w", err)
	}
	for _, row := range rows {
		stats.NodeCounts[row.String("label")] = row.Int("count")
	}

	rows, err = store.Run(ctx,
		`MATCH ()-[r]->() RETURN type(r) AS rel_type, count(r) AS count ORDER BY count DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("relationship counts: %w", err)
	}
	for _, row := range rows {
		stats.RelationshipCounts[row.String("rel_type")] = row.Int("count")
	}

	rows, err = store.Run(ctx,
		`MATCH (f:File)
		 RETURN count(f) AS file_count,
		        collect(DISTINCT f.language) AS languages,
		        sum(f.size) AS total_size`, nil)
	if err != nil {
		return nil, fmt.Errorf("file stats: %w", err)
	}
	if len(rows) > 0 {
		stats.FileCount = rows[0].Int("file_count")
		stats.Languages = rows[0].Strings("languages")
		stats.TotalSize = rows[0].Int("total_size")
	}

	for _, label := range core.VectorLabels {
		rows, err = store.Run(ctx, fmt.Sprintf(
			`MATCH (n:%s) WHERE n.embedding IS NOT NULL RETURN count(n) AS count`, label), nil)
		if err != nil {
			return nil, fmt.Errorf("embedding coverage for %s: %w", label, err)
		}
		if len(rows) > 0 {
			stats.NodesWithEmbeddings[string(label)] = rows[0].Int("count")
		}
	}

	rows, err = store.Run(ctx,
		`MATCH (n)
		 WHERE n.embedding IS NOT NULL
		   AND (n.generated_summary IS NULL OR n.generated_summary = '')
		 RETURN count(n) AS count`, nil)
	if err != nil {
		return nil, fmt.Errorf("embedded-without-summary count: %w", err)
	}
	if len(rows) > 0 {
		stats.EmbeddedWithoutSummary = rows[0].Int("count")
	}

	rows, err = store.Run(ctx, `SHOW INDEXES YIELD name RETURN name ORDER BY name`, nil)
	if err == nil {
		for _, row := range rows {
			stats.Indexes = append(stats.Indexes, row.String("name"))
		}
	}

	rows, err = store.Run(ctx,
		`CALL dbms.components() YIELD name, versions RETURN name, versions[0] AS version`, nil)
	if err == nil && len(rows) > 0 {
		stats.StoreVersion = rows[0].String("name") + " " + rows[0].String("version")
	}

	return stats, nil
}

// StoredChecksums returns the {path → checksum} map from File nodes,
// satisfying the scanner's ChecksumSource.
func (d *DB) StoredChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := d.Run(ctx,
		`MATCH (f:File) RETURN f.path AS path, f.checksum AS checksum`, nil)
	if err != nil {
		return nil, err
	}
	checksums := make(map[string]string, len(rows))
	for _, row := range rows {
		path, sum := row.String("path"), row.String("checksum")
		if path != "" && sum != "" {
			checksums[path] = sum
		}
	}
	return checksums, nil
}

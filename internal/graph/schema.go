package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/sevigo/code-atlas/internal/core"
)

// VectorIndexName returns the per-label vector index name, e.g.
// "class_embedding_index" for the Class label.
func VectorIndexName(label core.Label) string {
	return strings.ToLower(string(label)) + "_embedding_index"
}

// EnsureSchema creates the uniqueness constraints, vector indexes, and text
// indexes the pipeline relies on. Every statement is idempotent
// (IF NOT EXISTS), so this is safe to run before each ingest.
func EnsureSchema(ctx context.Context, store Store, dimensions int) error {
	var statements []string

	for _, label := range core.AllLabels {
		statements = append(statements, fmt.Sprintf(
			"CREATE CONSTRAINT %s_id_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE",
			strings.ToLower(string(label)), label))
	}

	for _, label := range core.VectorLabels {
		statements = append(statements, fmt.Sprintf(
			"CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.embedding) "+
				"OPTIONS { indexConfig: { `vector.dimensions`: %d, `vector.similarity_function`: 'cosine' } }",
			VectorIndexName(label), label, dimensions))
	}

	for _, label := range core.VectorLabels {
		lower := strings.ToLower(string(label))
		statements = append(statements,
			fmt.Sprintf("CREATE INDEX %s_name_index IF NOT EXISTS FOR (n:%s) ON (n.name)", lower, label),
			fmt.Sprintf("CREATE TEXT INDEX %s_summary_text_index IF NOT EXISTS FOR (n:%s) ON (n.generated_summary)", lower, label),
		)
	}

	statements = append(statements,
		"CREATE INDEX file_checksum_index IF NOT EXISTS FOR (f:File) ON (f.checksum)",
		"CREATE INDEX file_extension_index IF NOT EXISTS FOR (f:File) ON (f.extension)",
	)

	for _, statement := range statements {
		if _, err := store.Run(ctx, statement, nil); err != nil {
			return fmt.Errorf("schema statement failed (%s): %w", statement, err)
		}
	}
	return nil
}

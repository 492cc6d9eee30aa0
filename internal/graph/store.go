// Package graph wraps the property graph database behind a narrow driver
// interface and implements schema setup and batched ingestion.
package graph

import "context"

// Row is a single result record with values keyed by return alias.
type Row map[string]any

// Store is the narrow surface every component uses to reach the graph
// database. The same interface admits an in-memory double for tests.
//
//go:generate mockgen -destination=../../mocks/mock_store.go -package=mocks github.com/sevigo/code-atlas/internal/graph Store
type Store interface {
	// Run executes a parameterized query and returns all result rows.
	Run(ctx context.Context, query string, params map[string]any) ([]Row, error)

	// VectorKNN queries the named per-label vector index for the k nearest
	// neighbours of vec. Each row carries the node's properties plus a
	// "score" entry. Implementations without a native nearest-neighbour
	// primitive fall back to an exhaustive scan.
	VectorKNN(ctx context.Context, index string, k int, vec []float32) ([]Row, error)
}

// String returns the value for key as a string, or "" when absent or of a
// different type.
func (r Row) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Int returns the value for key as an int64, accepting the numeric types
// drivers commonly decode into.
func (r Row) Int(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Float returns the value for key as a float64.
func (r Row) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// Bool returns the value for key as a bool.
func (r Row) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Strings returns the value for key as a string slice.
func (r Row) Strings(key string) []string {
	raw, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Floats returns the value for key as a float32 slice (embedding vectors).
func (r Row) Floats(key string) []float32 {
	switch raw := r[key].(type) {
	case []float32:
		return raw
	case []any:
		out := make([]float32, 0, len(raw))
		for _, v := range raw {
			switch f := v.(type) {
			case float64:
				out = append(out, float32(f))
			case float32:
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}

package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/sevigo/code-atlas/internal/atlaserr"
	"github.com/sevigo/code-atlas/internal/graph"
)

// Response is the complete answer to one search call.
type Response struct {
	Query            string         `json:"query"`
	TotalResults     int            `json:"total_results"`
	SearchTimeMS     float64        `json:"search_time_ms"`
	Results          []HybridResult `json:"results"`
	Context          *GraphContext  `json:"context,omitempty"`
	QueryExplanation *Explanation   `json:"query_explanation,omitempty"`
}

// Service is the search surface exposed to the CLI, the HTTP server, and
// other tools.
type Service struct {
	store     graph.Store
	hybrid    *HybridEngine
	vector    *VectorEngine
	traversal *TraversalEngine
	logger    *slog.Logger
}

// NewService creates the search facade.
func NewService(store graph.Store, hybrid *HybridEngine, vector *VectorEngine, traversal *TraversalEngine, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		hybrid:    hybrid,
		vector:    vector,
		traversal: traversal,
		logger:    logger,
	}
}

// Search executes a hybrid search and wraps the ranked results with timing
// and the shared context of the top hits.
func (s *Service) Search(ctx context.Context, query string, cfg Config) (*Response, error) {
	start := time.Now()

	results, err := s.hybrid.Search(ctx, query, cfg)
	if err != nil {
		return nil, atlaserr.New(atlaserr.KindStore, "search", err)
	}

	response := &Response{
		Query:        query,
		TotalResults: len(results),
		SearchTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
		Results:      results,
	}
	explanation := s.hybrid.Explain(query)
	response.QueryExplanation = &explanation

	for _, result := range results {
		if result.Context != nil {
			response.Context = result.Context
			break
		}
	}
	return response, nil
}

// Explain parses the query and reports the strategy without executing it.
func (s *Service) Explain(query string) Explanation {
	return s.hybrid.Explain(query)
}

// CallHierarchy returns callers and callees around a method or function.
func (s *Service) CallHierarchy(ctx context.Context, nodeID string, direction Direction, maxDepth int) (*Hierarchy, error) {
	if err := s.ensureNodeExists(ctx, nodeID); err != nil {
		return nil, err
	}
	h, err := s.traversal.CallHierarchy(ctx, nodeID, direction, maxDepth)
	if err != nil {
		return nil, atlaserr.New(atlaserr.KindStore, "call hierarchy", err)
	}
	return h, nil
}

// InheritanceHierarchy returns ancestors and descendants of a class or
// interface.
func (s *Service) InheritanceHierarchy(ctx context.Context, nodeID string) (*Hierarchy, error) {
	if err := s.ensureNodeExists(ctx, nodeID); err != nil {
		return nil, err
	}
	h, err := s.traversal.InheritanceHierarchy(ctx, nodeID)
	if err != nil {
		return nil, atlaserr.New(atlaserr.KindStore, "inheritance hierarchy", err)
	}
	return h, nil
}

// NodeDetails looks one node up by id.
func (s *Service) NodeDetails(ctx context.Context, nodeID string) (*Result, error) {
	rows, err := s.store.Run(ctx,
		`MATCH (n {id: $id})
		 RETURN n.id AS id, n.name AS name, n.full_name AS full_name,
		        labels(n)[0] AS node_type, n.generated_summary AS summary,
		        n.raw_code AS raw_code, n.start_line AS start_line, n.end_line AS end_line,
		        n.path AS path, n.visibility AS visibility, n.type AS type`,
		map[string]any{"id": nodeID})
	if err != nil {
		return nil, atlaserr.New(atlaserr.KindStore, "node details", err)
	}
	if len(rows) == 0 {
		return nil, atlaserr.Newf(atlaserr.KindNotFound, "node details", "node %s not found", nodeID)
	}
	result := resultFromRow(rows[0], true)
	result.Score = 1.0
	return &result, nil
}

// Similar finds nodes close to the given node in embedding space.
func (s *Service) Similar(ctx context.Context, nodeID string, maxResults int) ([]Result, error) {
	cfg := DefaultVectorConfig()
	if maxResults > 0 {
		cfg.MaxResults = maxResults
	}
	results, err := s.vector.SimilarToNode(ctx, nodeID, cfg)
	if err != nil {
		return nil, atlaserr.New(atlaserr.KindStore, "similar nodes", err)
	}
	return results, nil
}

// Stats reports counts per label, embedding coverage, index inventory, and
// the store version.
func (s *Service) Stats(ctx context.Context) (*graph.Stats, error) {
	stats, err := graph.CollectStats(ctx, s.store)
	if err != nil {
		return nil, atlaserr.New(atlaserr.KindStore, "stats", err)
	}
	return stats, nil
}

func (s *Service) ensureNodeExists(ctx context.Context, nodeID string) error {
	rows, err := s.store.Run(ctx,
		`MATCH (n {id: $id}) RETURN n.id AS id`, map[string]any{"id": nodeID})
	if err != nil {
		return atlaserr.New(atlaserr.KindStore, "node lookup", err)
	}
	if len(rows) == 0 {
		return atlaserr.Newf(atlaserr.KindNotFound, "node lookup", "node %s not found", nodeID)
	}
	return nil
}

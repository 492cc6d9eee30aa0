// Package search implements the hybrid retriever: vector similarity,
// exact-name lookup, and rule-driven graph expansion fused into one ranked
// answer.
package search

// Location is a line range attached to a result.
type Location struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Result is a single scored node from either search path.
type Result struct {
	NodeID   string         `json:"node_id"`
	Name     string         `json:"name"`
	FullName string         `json:"full_name"`
	NodeType string         `json:"node_type"`
	Summary  string         `json:"summary"`
	RawCode  string         `json:"raw_code,omitempty"`
	Score    float64        `json:"similarity_score"`
	Location *Location      `json:"location,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// HybridResult is a merged result with its final score and provenance.
type HybridResult struct {
	Result      Result        `json:"result"`
	MatchType   string        `json:"match_type"`
	HybridScore float64       `json:"hybrid_score"`
	Context     *GraphContext `json:"context,omitempty"`
	Explanation string        `json:"explanation"`
}

// GraphNode is a related node discovered by context expansion.
type GraphNode struct {
	NodeID           string         `json:"node_id"`
	Name             string         `json:"name"`
	FullName         string         `json:"full_name"`
	NodeType         string         `json:"node_type"`
	Summary          string         `json:"summary"`
	RawCode          string         `json:"raw_code,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Depth            int            `json:"depth"`
	RelationshipPath []string       `json:"relationship_path,omitempty"`
}

// RelationshipInfo records one traversed edge during expansion.
type RelationshipInfo struct {
	FromNode         string `json:"from_node"`
	ToNode           string `json:"to_node"`
	RelationshipType string `json:"relationship_type"`
	Direction        string `json:"direction"`
	Depth            int    `json:"depth"`
}

// TraversalSummary aggregates an expansion run.
type TraversalSummary struct {
	CentralNodeCount  int            `json:"central_node_count"`
	RelatedNodeCount  int            `json:"related_node_count"`
	RelationshipCount int            `json:"relationship_count"`
	NodeTypes         map[string]int `json:"node_types"`
	RelationshipTypes map[string]int `json:"relationship_types"`
	DepthDistribution map[int]int    `json:"depth_distribution"`
	MaxDepth          int            `json:"max_depth"`
	CallHierarchy     map[string]int `json:"call_hierarchy,omitempty"`
	Inheritance       map[string]int `json:"inheritance,omitempty"`
}

// GraphContext is the expanded neighbourhood shared by a search's top
// results.
type GraphContext struct {
	RelatedNodes  []GraphNode        `json:"related_nodes"`
	Relationships []RelationshipInfo `json:"relationships"`
	Summary       TraversalSummary   `json:"traversal_summary"`
}

// Hierarchy is the result of a call- or inheritance-hierarchy query.
type Hierarchy struct {
	NodeID      string      `json:"node_id"`
	Callers     []GraphNode `json:"callers,omitempty"`
	Callees     []GraphNode `json:"callees,omitempty"`
	Ancestors   []GraphNode `json:"ancestors,omitempty"`
	Descendants []GraphNode `json:"descendants,omitempty"`
}

// VectorConfig tunes one vector search pass.
type VectorConfig struct {
	MaxResults        int
	MinSimilarity     float64
	BoostExactMatches bool
	BoostFactor       float64
	IncludeRawCode    bool
}

// DefaultVectorConfig returns the spec defaults.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		MaxResults:        20,
		MinSimilarity:     0.6,
		BoostExactMatches: true,
		BoostFactor:       1.2,
	}
}

// Config tunes a hybrid search. Every constant of the merge-and-rescore
// formula is a knob here so runs can be differentially tested.
type Config struct {
	MaxVectorResults       int     `mapstructure:"max_vector_results"`
	MaxEntityResults       int     `mapstructure:"max_entity_results"`
	MaxTotalResults        int     `mapstructure:"max_total_results"`
	MinSimilarity          float64 `mapstructure:"min_similarity"`
	EnableContextExpansion bool    `mapstructure:"enable_context_expansion"`
	MaxContextNodes        int     `mapstructure:"max_context_nodes"`
	BoostExactMatches      float64 `mapstructure:"boost_exact_matches"`
	BoostEntityMatches     float64 `mapstructure:"boost_entity_matches"`
	BoostFactor            float64 `mapstructure:"boost_factor"`
	IncludeSourceCode      bool    `mapstructure:"include_source_code"`
	ExpandCallHierarchy    bool    `mapstructure:"expand_call_hierarchy"`
	ExpandInheritance      bool    `mapstructure:"expand_inheritance"`

	// NodeTypes restricts the vector path to these labels, overriding the
	// hints parsed from the query. Empty means no restriction.
	NodeTypes []string `mapstructure:"-"`
}

// DefaultConfig returns the spec defaults.
func DefaultConfig() Config {
	return Config{
		MaxVectorResults:       20,
		MaxEntityResults:       10,
		MaxTotalResults:        30,
		MinSimilarity:          0.6,
		EnableContextExpansion: true,
		MaxContextNodes:        50,
		BoostExactMatches:      1.5,
		BoostEntityMatches:     1.3,
		BoostFactor:            1.2,
	}
}

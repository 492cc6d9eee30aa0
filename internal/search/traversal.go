package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/code-atlas/internal/graph"
)

// Direction selects which way relationships are followed.
type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

// DefaultMaxContextNodes is the total budget of related nodes per expansion.
const DefaultMaxContextNodes = 50

// hierarchyLimit caps callers and callees lists.
const hierarchyLimit = 20

// inheritanceDepth bounds EXTENDS|IMPLEMENTS chains.
const inheritanceDepth = 5

// Rule describes one expansion step from a seed label.
type Rule struct {
	Relationship string
	Direction    Direction
	TargetLabel  string
	MaxDepth     int
}

// expansionRules is the closed rule table: for each label, which
// relationships are followed to build related-node context.
var expansionRules = map[string][]Rule{
	"File": {
		{Relationship: "CONTAINS", Direction: DirectionOut, TargetLabel: "Class"},
		{Relationship: "CONTAINS", Direction: DirectionOut, TargetLabel: "Function"},
		{Relationship: "CONTAINS", Direction: DirectionOut, TargetLabel: "Interface"},
		{Relationship: "IMPORTS", Direction: DirectionOut},
		{Relationship: "IMPORTS", Direction: DirectionIn},
	},
	"Class": {
		{Relationship: "CONTAINS", Direction: DirectionIn},
		{Relationship: "DEFINES", Direction: DirectionOut, TargetLabel: "Method"},
		{Relationship: "DEFINES", Direction: DirectionOut, TargetLabel: "Variable"},
		{Relationship: "EXTENDS", Direction: DirectionOut, TargetLabel: "Class"},
		{Relationship: "IMPLEMENTS", Direction: DirectionOut, TargetLabel: "Interface"},
		{Relationship: "EXTENDS", Direction: DirectionIn},
		{Relationship: "IMPLEMENTS", Direction: DirectionIn},
		{Relationship: "INSTANTIATES", Direction: DirectionIn},
	},
	"Interface": {
		{Relationship: "CONTAINS", Direction: DirectionIn},
		{Relationship: "DEFINES", Direction: DirectionOut, TargetLabel: "Method"},
		{Relationship: "EXTENDS", Direction: DirectionOut, TargetLabel: "Interface"},
		{Relationship: "IMPLEMENTS", Direction: DirectionIn},
		{Relationship: "EXTENDS", Direction: DirectionIn},
	},
	"Method": {
		{Relationship: "DEFINES", Direction: DirectionIn},
		{Relationship: "DECLARES", Direction: DirectionOut, TargetLabel: "Parameter"},
		{Relationship: "DECLARES", Direction: DirectionOut, TargetLabel: "Variable"},
		{Relationship: "CALLS", Direction: DirectionOut, TargetLabel: "Method"},
		{Relationship: "CALLS", Direction: DirectionOut, TargetLabel: "Function"},
		{Relationship: "INSTANTIATES", Direction: DirectionOut, TargetLabel: "Class"},
		{Relationship: "CALLS", Direction: DirectionIn},
	},
	"Function": {
		{Relationship: "CONTAINS", Direction: DirectionIn},
		{Relationship: "DECLARES", Direction: DirectionOut, TargetLabel: "Parameter"},
		{Relationship: "DECLARES", Direction: DirectionOut, TargetLabel: "Variable"},
		{Relationship: "CALLS", Direction: DirectionOut, TargetLabel: "Function"},
		{Relationship: "CALLS", Direction: DirectionOut, TargetLabel: "Method"},
		{Relationship: "INSTANTIATES", Direction: DirectionOut, TargetLabel: "Class"},
		{Relationship: "CALLS", Direction: DirectionIn},
	},
	"Variable": {
		{Relationship: "DECLARES", Direction: DirectionIn},
		{Relationship: "SCOPES", Direction: DirectionBoth},
	},
	"Parameter": {
		{Relationship: "DECLARES", Direction: DirectionIn},
		{Relationship: "SCOPES", Direction: DirectionBoth},
	},
}

// TraversalEngine expands graph context around search results by applying
// the rule table.
type TraversalEngine struct {
	store  graph.Store
	logger *slog.Logger
}

// NewTraversalEngine creates a TraversalEngine.
func NewTraversalEngine(store graph.Store, logger *slog.Logger) *TraversalEngine {
	return &TraversalEngine{
		store:  store,
		logger: logger,
	}
}

// ExpandContext gathers related nodes around the seeds up to a total
// budget. Duplicates are discarded; the first-seen depth wins.
func (e *TraversalEngine) ExpandContext(ctx context.Context, seeds []Result, maxRelated int, includeRaw bool) (*GraphContext, error) {
	if maxRelated <= 0 {
		maxRelated = DefaultMaxContextNodes
	}
	gc := &GraphContext{
		Summary: TraversalSummary{
			CentralNodeCount:  len(seeds),
			NodeTypes:         make(map[string]int),
			RelationshipTypes: make(map[string]int),
			DepthDistribution: make(map[int]int),
		},
	}
	if len(seeds) == 0 {
		return gc, nil
	}

	processed := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		if _, done := processed[seed.NodeID]; done {
			continue
		}
		processed[seed.NodeID] = struct{}{}

		budget := maxRelated - len(gc.RelatedNodes)
		if budget <= 0 {
			break
		}
		nodes, rels := e.traverseFrom(ctx, seed.NodeID, seed.NodeType, budget, includeRaw, processed)
		gc.RelatedNodes = append(gc.RelatedNodes, nodes...)
		gc.Relationships = append(gc.Relationships, rels...)
	}

	for _, node := range gc.RelatedNodes {
		gc.Summary.NodeTypes[node.NodeType]++
		gc.Summary.DepthDistribution[node.Depth]++
		if node.Depth > gc.Summary.MaxDepth {
			gc.Summary.MaxDepth = node.Depth
		}
	}
	for _, rel := range gc.Relationships {
		gc.Summary.RelationshipTypes[rel.RelationshipType]++
	}
	gc.Summary.RelatedNodeCount = len(gc.RelatedNodes)
	gc.Summary.RelationshipCount = len(gc.Relationships)
	return gc, nil
}

func (e *TraversalEngine) traverseFrom(ctx context.Context, nodeID, nodeType string, budget int, includeRaw bool, processed map[string]struct{}) ([]GraphNode, []RelationshipInfo) {
	rules, ok := expansionRules[nodeType]
	if !ok {
		e.logger.Debug("no expansion rules for label", "label", nodeType)
		return nil, nil
	}

	var nodes []GraphNode
	var rels []RelationshipInfo
	for _, rule := range rules {
		if len(nodes) >= budget {
			break
		}
		found, err := e.applyRule(ctx, nodeID, rule, budget-len(nodes), includeRaw, processed)
		if err != nil {
			e.logger.Error("expansion rule failed",
				"rule", rule.Relationship, "direction", rule.Direction, "error", err)
			continue
		}
		for _, node := range found {
			nodes = append(nodes, node)
			rels = append(rels, RelationshipInfo{
				FromNode:         nodeID,
				ToNode:           node.NodeID,
				RelationshipType: rule.Relationship,
				Direction:        string(rule.Direction),
				Depth:            node.Depth,
			})
		}
	}
	return nodes, rels
}

func (e *TraversalEngine) applyRule(ctx context.Context, nodeID string, rule Rule, limit int, includeRaw bool, processed map[string]struct{}) ([]GraphNode, error) {
	targetFilter := ""
	if rule.TargetLabel != "" {
		targetFilter = ":" + rule.TargetLabel
	}

	var pattern string
	switch rule.Direction {
	case DirectionIn:
		pattern = fmt.Sprintf("(start)<-[:%s]-(related%s)", rule.Relationship, targetFilter)
	case DirectionBoth:
		pattern = fmt.Sprintf("(start)-[:%s]-(related%s)", rule.Relationship, targetFilter)
	default:
		pattern = fmt.Sprintf("(start)-[:%s]->(related%s)", rule.Relationship, targetFilter)
	}

	query := fmt.Sprintf(
		`MATCH (start {id: $id})
		 MATCH %s
		 WHERE related.id <> $id
		 RETURN related.id AS id, related.name AS name, related.full_name AS full_name,
		        labels(related)[0] AS node_type, related.generated_summary AS summary,
		        related.raw_code AS raw_code, related.path AS path
		 ORDER BY related.name
		 LIMIT $limit`, pattern)

	rows, err := e.store.Run(ctx, query, map[string]any{"id": nodeID, "limit": limit})
	if err != nil {
		return nil, err
	}

	var nodes []GraphNode
	for _, row := range rows {
		if len(nodes) >= limit {
			break
		}
		id := row.String("id")
		if _, seen := processed[id]; seen {
			continue
		}
		processed[id] = struct{}{}
		nodes = append(nodes, graphNodeFromRow(row, includeRaw, 1, rule.Relationship))
	}
	return nodes, nil
}

// CallHierarchy returns callers and/or callees of a method or function up
// to maxDepth hops, each list capped at 20.
func (e *TraversalEngine) CallHierarchy(ctx context.Context, nodeID string, direction Direction, maxDepth int) (*Hierarchy, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	h := &Hierarchy{NodeID: nodeID}

	if direction == DirectionIn || direction == DirectionBoth {
		callers, err := e.reachable(ctx, nodeID, fmt.Sprintf("(other)-[:CALLS*1..%d]->(target)", maxDepth))
		if err != nil {
			return nil, fmt.Errorf("callers of %s: %w", nodeID, err)
		}
		h.Callers = callers
	}
	if direction == DirectionOut || direction == DirectionBoth {
		callees, err := e.reachable(ctx, nodeID, fmt.Sprintf("(target)-[:CALLS*1..%d]->(other)", maxDepth))
		if err != nil {
			return nil, fmt.Errorf("callees of %s: %w", nodeID, err)
		}
		h.Callees = callees
	}
	return h, nil
}

// InheritanceHierarchy returns ancestors and descendants of a class or
// interface over EXTENDS and IMPLEMENTS chains.
func (e *TraversalEngine) InheritanceHierarchy(ctx context.Context, nodeID string) (*Hierarchy, error) {
	ancestors, err := e.reachable(ctx, nodeID,
		fmt.Sprintf("(target)-[:EXTENDS|IMPLEMENTS*1..%d]->(other)", inheritanceDepth))
	if err != nil {
		return nil, fmt.Errorf("ancestors of %s: %w", nodeID, err)
	}
	descendants, err := e.reachable(ctx, nodeID,
		fmt.Sprintf("(other)-[:EXTENDS|IMPLEMENTS*1..%d]->(target)", inheritanceDepth))
	if err != nil {
		return nil, fmt.Errorf("descendants of %s: %w", nodeID, err)
	}
	return &Hierarchy{NodeID: nodeID, Ancestors: ancestors, Descendants: descendants}, nil
}

func (e *TraversalEngine) reachable(ctx context.Context, nodeID, pattern string) ([]GraphNode, error) {
	query := fmt.Sprintf(
		`MATCH (target {id: $id})
		 MATCH %s
		 WHERE other.id <> $id
		 RETURN DISTINCT other.id AS id, other.name AS name, other.full_name AS full_name,
		        labels(other)[0] AS node_type, other.generated_summary AS summary,
		        other.path AS path
		 ORDER BY other.name
		 LIMIT $limit`, pattern)

	rows, err := e.store.Run(ctx, query, map[string]any{"id": nodeID, "limit": hierarchyLimit})
	if err != nil {
		return nil, err
	}
	nodes := make([]GraphNode, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, graphNodeFromRow(row, false, 1, ""))
	}
	return nodes, nil
}

func graphNodeFromRow(row graph.Row, includeRaw bool, depth int, relationship string) GraphNode {
	node := GraphNode{
		NodeID:   row.String("id"),
		Name:     row.String("name"),
		FullName: row.String("full_name"),
		NodeType: row.String("node_type"),
		Summary:  row.String("summary"),
		Depth:    depth,
	}
	if includeRaw {
		node.RawCode = row.String("raw_code")
	}
	if path := row.String("path"); path != "" {
		node.Metadata = map[string]any{"path": path}
	}
	if relationship != "" {
		node.RelationshipPath = []string{relationship}
	}
	return node
}

// ParseDirection normalizes user input into a Direction, defaulting to
// both.
func ParseDirection(s string) Direction {
	switch strings.ToLower(s) {
	case "in", "incoming":
		return DirectionIn
	case "out", "outgoing":
		return DirectionOut
	default:
		return DirectionBoth
	}
}

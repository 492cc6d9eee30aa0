package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sevigo/code-atlas/internal/graph"
)

// maxScore caps the final hybrid score.
const maxScore = 2.0

// contextExpansionSeeds is how many top results share the expanded context.
const contextExpansionSeeds = 10

// relatedNodeBonusStep and relatedNodeBonusCap shape the additive context
// bonus: 0.002 per related node, at most 0.1.
const (
	relatedNodeBonusStep = 0.002
	relatedNodeBonusCap  = 0.1
)

// Explanation describes how a query would be executed, without executing
// it.
type Explanation struct {
	OriginalQuery  string   `json:"original_query"`
	Intent         Intent   `json:"parsed_intent"`
	SearchStrategy []string `json:"search_strategy"`
	Approach       string   `json:"estimated_approach"`
}

// HybridEngine fuses vector search, entity lookup, and graph expansion into
// one ranked result list.
type HybridEngine struct {
	store     graph.Store
	vector    *VectorEngine
	traversal *TraversalEngine
	parser    *QueryParser
	logger    *slog.Logger
}

// NewHybridEngine creates a HybridEngine.
func NewHybridEngine(store graph.Store, vector *VectorEngine, traversal *TraversalEngine, logger *slog.Logger) *HybridEngine {
	return &HybridEngine{
		store:     store,
		vector:    vector,
		traversal: traversal,
		parser:    NewQueryParser(),
		logger:    logger,
	}
}

// Search parses the query into an intent, dispatches to the vector and
// entity paths it selects, optionally expands context, and returns merged
// results sorted by final score.
func (e *HybridEngine) Search(ctx context.Context, query string, cfg Config) ([]HybridResult, error) {
	intent := e.parser.Parse(query)
	e.logger.Info("query parsed",
		"type", intent.QueryType,
		"confidence", intent.Confidence,
		"entities", len(intent.EntityNames),
	)

	var all []HybridResult

	if intent.QueryType == QuerySemantic || intent.QueryType == QueryHybrid || intent.QueryType == QueryContextual {
		vectorResults, err := e.semanticSearch(ctx, query, intent, cfg)
		if err != nil {
			e.logger.Error("semantic path failed", "error", err)
		} else {
			all = append(all, vectorResults...)
		}
	}

	if intent.QueryType == QueryEntity || intent.QueryType == QueryHybrid {
		entityResults, err := e.entitySearch(ctx, intent, cfg)
		if err != nil {
			e.logger.Error("entity path failed", "error", err)
		} else {
			all = append(all, entityResults...)
		}
	}

	merged := merge(all)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].HybridScore > merged[j].HybridScore })

	if cfg.EnableContextExpansion && (intent.QueryType == QueryContextual || intent.ExpandContext) {
		e.expandContext(ctx, merged, cfg)
	}

	for i := range merged {
		merged[i].HybridScore = e.finalScore(&merged[i], intent, cfg)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].HybridScore > merged[j].HybridScore })

	if len(merged) > cfg.MaxTotalResults {
		merged = merged[:cfg.MaxTotalResults]
	}
	return merged, nil
}

// Explain returns the parsed intent and strategy list without executing the
// search.
func (e *HybridEngine) Explain(query string) Explanation {
	intent := e.parser.Parse(query)

	var strategies []string
	if intent.QueryType == QuerySemantic || intent.QueryType == QueryHybrid || intent.QueryType == QueryContextual {
		strategies = append(strategies, "Vector semantic search using embeddings")
	}
	if intent.QueryType == QueryEntity || intent.QueryType == QueryHybrid {
		strategies = append(strategies, "Direct entity name lookup")
	}
	if intent.ExpandContext {
		strategies = append(strategies, "Graph context expansion")
	}

	var approach string
	switch intent.QueryType {
	case QueryEntity:
		approach = "Entity lookup - finding specific named code elements"
	case QueryHybrid:
		approach = "Hybrid approach - combining semantic search with entity lookup"
	case QueryContextual:
		approach = "Contextual search - semantic search with relationship traversal"
	default:
		approach = "Pure semantic search - finding code with similar meaning"
	}

	return Explanation{
		OriginalQuery:  query,
		Intent:         intent,
		SearchStrategy: strategies,
		Approach:       approach,
	}
}

func (e *HybridEngine) semanticSearch(ctx context.Context, query string, intent Intent, cfg Config) ([]HybridResult, error) {
	vectorCfg := VectorConfig{
		MaxResults:        cfg.MaxVectorResults,
		MinSimilarity:     cfg.MinSimilarity,
		BoostExactMatches: true,
		BoostFactor:       cfg.BoostFactor,
		IncludeRawCode:    cfg.IncludeSourceCode,
	}
	labels := cfg.NodeTypes
	if len(labels) == 0 && len(intent.NodeTypes) > 0 {
		labels = intent.NodeTypes
	}

	results, err := e.vector.SearchByText(ctx, query, vectorCfg, labels)
	if err != nil {
		return nil, err
	}

	hybrid := make([]HybridResult, 0, len(results))
	for _, result := range results {
		hybrid = append(hybrid, HybridResult{
			Result:      result,
			MatchType:   "vector",
			HybridScore: result.Score,
			Explanation: fmt.Sprintf("Semantic similarity: %.3f", result.Score),
		})
	}
	return hybrid, nil
}

func (e *HybridEngine) entitySearch(ctx context.Context, intent Intent, cfg Config) ([]HybridResult, error) {
	var hybrid []HybridResult
	for _, entity := range intent.EntityNames {
		results, err := e.searchByName(ctx, entity, cfg)
		if err != nil {
			return nil, err
		}
		for _, result := range results {
			hybrid = append(hybrid, HybridResult{
				Result:      result,
				MatchType:   "entity",
				HybridScore: result.Score * cfg.BoostEntityMatches,
				Explanation: fmt.Sprintf("Entity name match: %s", entity),
			})
		}
	}
	return hybrid, nil
}

// searchByName looks nodes up by exact or substring name match, scored by
// match quality: exact name 1.0, exact full name 0.9, substring 0.8, else
// 0.7.
func (e *HybridEngine) searchByName(ctx context.Context, name string, cfg Config) ([]Result, error) {
	rows, err := e.store.Run(ctx,
		`MATCH (n)
		 WHERE n.name CONTAINS $name OR n.full_name CONTAINS $name
		 RETURN n.id AS id, n.name AS name, n.full_name AS full_name,
		        labels(n)[0] AS node_type, n.generated_summary AS summary,
		        n.raw_code AS raw_code, n.start_line AS start_line, n.end_line AS end_line,
		        n.path AS path, n.visibility AS visibility, n.type AS type,
		        CASE
		            WHEN n.name = $name THEN 1.0
		            WHEN n.full_name = $name THEN 0.9
		            WHEN n.name CONTAINS $name THEN 0.8
		            ELSE 0.7
		        END AS match_score
		 ORDER BY match_score DESC, n.name
		 LIMIT $limit`,
		map[string]any{"name": name, "limit": cfg.MaxEntityResults})
	if err != nil {
		return nil, fmt.Errorf("entity lookup %q: %w", name, err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		result := resultFromRow(row, cfg.IncludeSourceCode)
		result.Score = row.Float("match_score")
		results = append(results, result)
	}
	return results, nil
}

// expandContext builds one shared context object around the top results and
// attaches it to each of them.
func (e *HybridEngine) expandContext(ctx context.Context, results []HybridResult, cfg Config) {
	if len(results) == 0 {
		return
	}
	top := results
	if len(top) > contextExpansionSeeds {
		top = top[:contextExpansionSeeds]
	}
	seeds := make([]Result, len(top))
	for i, result := range top {
		seeds[i] = result.Result
	}

	gc, err := e.traversal.ExpandContext(ctx, seeds, cfg.MaxContextNodes, cfg.IncludeSourceCode)
	if err != nil {
		e.logger.Error("context expansion failed", "error", err)
		return
	}

	for i := range top {
		top[i].Context = gc
		top[i].Explanation += fmt.Sprintf(" | Context: %d related nodes", len(gc.RelatedNodes))
	}

	if cfg.ExpandCallHierarchy || cfg.ExpandInheritance {
		for i := range top {
			e.addHierarchyContext(ctx, &top[i], cfg)
		}
	}
}

func (e *HybridEngine) addHierarchyContext(ctx context.Context, result *HybridResult, cfg Config) {
	nodeType := result.Result.NodeType

	if cfg.ExpandCallHierarchy && (nodeType == "Method" || nodeType == "Function") {
		h, err := e.traversal.CallHierarchy(ctx, result.Result.NodeID, DirectionBoth, 2)
		if err != nil {
			e.logger.Warn("call hierarchy expansion failed", "node", result.Result.NodeID, "error", err)
		} else if result.Context != nil {
			result.Context.Summary.CallHierarchy = map[string]int{
				"callers": len(h.Callers),
				"callees": len(h.Callees),
			}
		}
	}

	if cfg.ExpandInheritance && (nodeType == "Class" || nodeType == "Interface") {
		h, err := e.traversal.InheritanceHierarchy(ctx, result.Result.NodeID)
		if err != nil {
			e.logger.Warn("inheritance expansion failed", "node", result.Result.NodeID, "error", err)
		} else if result.Context != nil {
			result.Context.Summary.Inheritance = map[string]int{
				"ancestors":   len(h.Ancestors),
				"descendants": len(h.Descendants),
			}
		}
	}
}

// merge deduplicates by node id, keeping the highest base score and
// concatenating match types with "+".
func merge(all []HybridResult) []HybridResult {
	var unique []HybridResult
	index := make(map[string]int)

	for _, result := range all {
		id := result.Result.NodeID
		if at, seen := index[id]; seen {
			if result.HybridScore > unique[at].HybridScore {
				unique[at].HybridScore = result.HybridScore
			}
			unique[at].MatchType = unique[at].MatchType + "+" + result.MatchType
			continue
		}
		index[id] = len(unique)
		unique = append(unique, result)
	}
	return unique
}

// finalScore implements the multiplicative rescore:
// base × exact-match boost × intent confidence × node-type boost ×
// multi-path boost, plus a bounded additive bonus for related context,
// capped at 2.0.
func (e *HybridEngine) finalScore(result *HybridResult, intent Intent, cfg Config) float64 {
	score := result.HybridScore

	if isIntentExactMatch(result.Result, intent) {
		score *= cfg.BoostExactMatches
	}

	score *= intent.Confidence

	if len(intent.NodeTypes) > 0 && contains(intent.NodeTypes, result.Result.NodeType) {
		score *= 1.2
	}

	if strings.Contains(result.MatchType, "+") {
		score *= 1.1
	}

	if result.Context != nil && len(result.Context.RelatedNodes) > 0 {
		score += min(relatedNodeBonusCap, float64(len(result.Context.RelatedNodes))*relatedNodeBonusStep)
	}

	return min(score, maxScore)
}

func isIntentExactMatch(result Result, intent Intent) bool {
	nameLower := strings.ToLower(result.Name)
	for _, entity := range intent.EntityNames {
		if strings.ToLower(entity) == nameLower {
			return true
		}
	}
	for _, keyword := range intent.ProgrammingTerms {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

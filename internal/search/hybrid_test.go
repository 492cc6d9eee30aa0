package search

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/sevigo/code-atlas/internal/graph"
	"github.com/sevigo/code-atlas/internal/graph/graphtest"
)

func newTestEngine(store graph.Store, embedder QueryEmbedder) *HybridEngine {
	vector := NewVectorEngine(store, embedder, testLogger())
	traversal := NewTraversalEngine(store, testLogger())
	return NewHybridEngine(store, vector, traversal, testLogger())
}

func TestMergeDeduplicates(t *testing.T) {
	all := []HybridResult{
		{Result: Result{NodeID: "a"}, MatchType: "vector", HybridScore: 0.7},
		{Result: Result{NodeID: "b"}, MatchType: "vector", HybridScore: 0.5},
		{Result: Result{NodeID: "a"}, MatchType: "entity", HybridScore: 0.9},
	}

	merged := merge(all)
	if len(merged) != 2 {
		t.Fatalf("merged = %d, want 2", len(merged))
	}
	if merged[0].Result.NodeID != "a" {
		t.Fatalf("first merged = %s", merged[0].Result.NodeID)
	}
	if merged[0].HybridScore != 0.9 {
		t.Errorf("merged score = %f, want the maximum 0.9", merged[0].HybridScore)
	}
	if merged[0].MatchType != "vector+entity" {
		t.Errorf("match type = %s, want vector+entity", merged[0].MatchType)
	}
}

func TestFinalScoreFormula(t *testing.T) {
	e := newTestEngine(&graphtest.FakeStore{}, &stubEmbedder{})
	cfg := DefaultConfig()

	intent := Intent{
		QueryType:   QueryHybrid,
		EntityNames: []string{"PaymentService"},
		NodeTypes:   []string{"Class"},
		Confidence:  0.8,
	}

	result := &HybridResult{
		Result:      Result{NodeID: "a", Name: "PaymentService", NodeType: "Class"},
		MatchType:   "vector+entity",
		HybridScore: 1.0,
		Context: &GraphContext{RelatedNodes: make([]GraphNode, 10)},
	}

	// 1.0 × 1.5 (exact) × 0.8 (confidence) × 1.2 (node type) × 1.1 (multi)
	// + min(0.1, 10 × 0.002)
	want := 1.0*1.5*0.8*1.2*1.1 + 0.02
	if got := e.finalScore(result, intent, cfg); math.Abs(got-want) > 1e-9 {
		t.Errorf("finalScore = %f, want %f", got, want)
	}
}

func TestFinalScoreContextBonusIsCapped(t *testing.T) {
	e := newTestEngine(&graphtest.FakeStore{}, &stubEmbedder{})
	cfg := DefaultConfig()

	intent := Intent{QueryType: QuerySemantic, Confidence: 1.0}
	result := &HybridResult{
		Result:      Result{NodeID: "a", Name: "zzz"},
		MatchType:   "vector",
		HybridScore: 0.5,
		Context:     &GraphContext{RelatedNodes: make([]GraphNode, 500)},
	}

	want := 0.5 + 0.1
	if got := e.finalScore(result, intent, cfg); math.Abs(got-want) > 1e-9 {
		t.Errorf("finalScore = %f, want bonus capped at 0.1 (%f)", got, want)
	}
}

func TestFinalScoreIsCappedAtTwo(t *testing.T) {
	e := newTestEngine(&graphtest.FakeStore{}, &stubEmbedder{})
	cfg := DefaultConfig()

	intent := Intent{
		QueryType:   QueryHybrid,
		EntityNames: []string{"Big"},
		NodeTypes:   []string{"Class"},
		Confidence:  1.0,
	}
	result := &HybridResult{
		Result:      Result{NodeID: "a", Name: "Big", NodeType: "Class"},
		MatchType:   "vector+entity",
		HybridScore: 1.9,
	}

	if got := e.finalScore(result, intent, cfg); got != 2.0 {
		t.Errorf("finalScore = %f, want capped at 2.0", got)
	}
}

func TestSearchResultsAreSortedByFinalScore(t *testing.T) {
	// Entity-only query: one entity path, several name matches with
	// distinct match scores.
	store := &graphtest.FakeStore{Rules: []graphtest.Rule{
		{Contains: "CONTAINS $name", Rows: []graph.Row{
			{"id": "n1", "name": "DB", "node_type": "Class", "match_score": 1.0},
			{"id": "n2", "name": "DBPool", "node_type": "Class", "match_score": 0.8},
			{"id": "n3", "name": "legacy.DB", "node_type": "Class", "match_score": 0.7},
		}},
	}}
	e := newTestEngine(store, &stubEmbedder{})

	results, err := e.Search(context.Background(), "DB", DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if !sort.SliceIsSorted(results, func(i, j int) bool {
		return results[i].HybridScore > results[j].HybridScore
	}) {
		t.Error("results must be sorted by final score descending")
	}
	if results[0].Result.NodeID != "n1" {
		t.Errorf("first result = %s, want the exact name match", results[0].Result.NodeID)
	}
	if results[0].MatchType != "entity" {
		t.Errorf("match type = %s, want entity", results[0].MatchType)
	}
}

func TestSearchTruncatesToMaxTotalResults(t *testing.T) {
	var rows []graph.Row
	for i := 0; i < 40; i++ {
		rows = append(rows, graph.Row{
			"id": string(rune('a' + i)), "name": "DBThing", "node_type": "Class", "match_score": 0.8,
		})
	}
	store := &graphtest.FakeStore{Rules: []graphtest.Rule{{Contains: "CONTAINS $name", Rows: rows}}}
	e := newTestEngine(store, &stubEmbedder{})

	cfg := DefaultConfig()
	cfg.MaxTotalResults = 5
	results, err := e.Search(context.Background(), "DB", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 5 {
		t.Errorf("results = %d, want 5", len(results))
	}
}

func TestExplainStrategies(t *testing.T) {
	e := newTestEngine(&graphtest.FakeStore{}, &stubEmbedder{})

	tests := []struct {
		query          string
		wantStrategies int
		wantType       QueryType
	}{
		{"UserController login function", 2, QueryHybrid},
		{"DB", 1, QueryEntity},
		{"how payments move through checkout", 1, QuerySemantic},
		{"async payment validation", 1, QueryContextual},
		{"what calls charge_card", 2, QuerySemantic},
	}
	for _, tt := range tests {
		explanation := e.Explain(tt.query)
		if explanation.Intent.QueryType != tt.wantType {
			t.Errorf("%q: type = %s, want %s", tt.query, explanation.Intent.QueryType, tt.wantType)
		}
		if len(explanation.SearchStrategy) != tt.wantStrategies {
			t.Errorf("%q: strategies = %v, want %d", tt.query, explanation.SearchStrategy, tt.wantStrategies)
		}
	}
}

func TestExplainUserControllerLoginFunction(t *testing.T) {
	e := newTestEngine(&graphtest.FakeStore{}, &stubEmbedder{})
	explanation := e.Explain("UserController login function")

	if explanation.Intent.QueryType != QueryHybrid {
		t.Errorf("type = %s, want hybrid", explanation.Intent.QueryType)
	}
	if !containsString(explanation.Intent.EntityNames, "UserController") {
		t.Errorf("entities = %v", explanation.Intent.EntityNames)
	}
	if !containsString(explanation.Intent.NodeTypes, "Function") {
		t.Errorf("node types = %v", explanation.Intent.NodeTypes)
	}
	if explanation.Intent.Confidence < 0.7 {
		t.Errorf("confidence = %f, want >= 0.7", explanation.Intent.Confidence)
	}
}

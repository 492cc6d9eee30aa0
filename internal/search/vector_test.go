package search

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/sevigo/code-atlas/internal/graph"
	"github.com/sevigo/code-atlas/internal/graph/graphtest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return s.vec, s.err
}

func TestIsExactTextMatch(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		node    string
		summary string
		want    bool
	}{
		{"node name inside query", "PaymentService class", "PaymentService", "", true},
		{"query inside node name", "Payment", "PaymentService", "", true},
		{"summary word longer than three chars", "handles billing cycles", "x", "monthly billing logic", true},
		{"short summary words ignored", "the and for", "x", "the and for", false},
		{"no overlap", "user sessions", "PaymentService", "charges cards", false},
		{"empty query", "", "PaymentService", "summary", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isExactTextMatch(tt.query, tt.node, tt.summary); got != tt.want {
				t.Errorf("isExactTextMatch(%q, %q, %q) = %v, want %v", tt.query, tt.node, tt.summary, got, tt.want)
			}
		})
	}
}

func TestSearchByEmbeddingThresholdBoostAndOrder(t *testing.T) {
	store := &graphtest.FakeStore{KNNRows: []graph.Row{
		{"id": "low", "name": "low", "node_type": "Class", "score": 0.4},
		{"id": "mid", "name": "unrelated", "node_type": "Class", "score": 0.7},
		{"id": "hit", "name": "PaymentService", "node_type": "Class", "score": 0.65},
	}}
	e := NewVectorEngine(store, &stubEmbedder{vec: []float32{1, 0}}, testLogger())

	cfg := DefaultVectorConfig()
	results, err := e.SearchByText(context.Background(), "PaymentService", cfg, []string{"Class"})
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (below-threshold hit dropped)", len(results))
	}
	// 0.65 × 1.2 boost = 0.78 outranks the unboosted 0.7.
	if results[0].NodeID != "hit" {
		t.Errorf("first result = %s, want boosted exact match", results[0].NodeID)
	}
	if got := results[0].Score; got < 0.779 || got > 0.781 {
		t.Errorf("boosted score = %f, want 0.78", got)
	}
}

func TestSearchByTextQueriesEachRequestedLabel(t *testing.T) {
	store := &graphtest.FakeStore{}
	e := NewVectorEngine(store, &stubEmbedder{vec: []float32{1}}, testLogger())

	_, err := e.SearchByText(context.Background(), "q", DefaultVectorConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(store.KNNCalls); got != len(vectorLabelNames()) {
		t.Errorf("KNN calls = %d, want %d (one per vector label)", got, len(vectorLabelNames()))
	}
	if store.KNNCalls[0].K != 20 {
		t.Errorf("k = %d, want max results", store.KNNCalls[0].K)
	}
}

func TestSearchByTextSkipsUnindexedLabels(t *testing.T) {
	store := &graphtest.FakeStore{}
	e := NewVectorEngine(store, &stubEmbedder{vec: []float32{1}}, testLogger())

	_, err := e.SearchByText(context.Background(), "q", DefaultVectorConfig(), []string{"Import", "Class"})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(store.KNNCalls); got != 1 {
		t.Errorf("KNN calls = %d, want 1 (Import has no index)", got)
	}
}

func TestSimilarToNodeExcludesSeed(t *testing.T) {
	store := &graphtest.FakeStore{
		Rules: []graphtest.Rule{
			{Contains: "n.embedding AS embedding", Rows: []graph.Row{
				{"embedding": []any{1.0, 0.0}, "node_type": "Class"},
			}},
		},
		KNNRows: []graph.Row{
			{"id": "seed", "name": "Seed", "node_type": "Class", "score": 0.99},
			{"id": "other", "name": "Other", "node_type": "Class", "score": 0.8},
		},
	}
	e := NewVectorEngine(store, &stubEmbedder{}, testLogger())

	results, err := e.SimilarToNode(context.Background(), "seed", DefaultVectorConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].NodeID != "other" {
		t.Errorf("results = %v, want only the non-seed node", results)
	}
}

func TestResultFromRow(t *testing.T) {
	row := graph.Row{
		"id": "m1", "name": "charge_card", "full_name": "Pay.charge_card",
		"node_type": "Method", "summary": "charges a card", "raw_code": "def ...",
		"start_line": int64(5), "end_line": int64(9),
		"path": "a.py", "visibility": "public",
	}

	result := resultFromRow(row, false)
	if result.RawCode != "" {
		t.Error("raw code leaked without includeRaw")
	}
	if result.Location == nil || result.Location.StartLine != 5 || result.Location.EndLine != 9 {
		t.Errorf("location = %+v", result.Location)
	}
	if result.Metadata["path"] != "a.py" || result.Metadata["visibility"] != "public" {
		t.Errorf("metadata = %v", result.Metadata)
	}

	withCode := resultFromRow(row, true)
	if withCode.RawCode == "" {
		t.Error("raw code missing with includeRaw")
	}
}

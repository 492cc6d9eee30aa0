package indexer_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/sevigo/code-atlas/internal/chunker"
	"github.com/sevigo/code-atlas/internal/graph"
	"github.com/sevigo/code-atlas/internal/graph/graphtest"
	"github.com/sevigo/code-atlas/internal/indexer"
	"github.com/sevigo/code-atlas/internal/scanner"
	"github.com/sevigo/code-atlas/internal/summarizer"
	"github.com/sevigo/code-atlas/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// checksumStore adapts the fake store for the scanner's stored-checksum
// lookup.
type checksumStore struct {
	*graphtest.FakeStore
	stored map[string]string
}

func (s *checksumStore) StoredChecksums(context.Context) (map[string]string, error) {
	return s.stored, nil
}

func writeParser(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parser.sh")
	script := `#!/bin/sh
cat > "$3" <<'JSON'
{"language":"python","version":"1.0.0","processed_files":["a.py"],
 "nodes":[{"id":"f1","label":"File","name":"a.py","path":"a.py"},
          {"id":"c1","label":"Class","name":"PaymentService"}],
 "relationships":[{"source_id":"f1","target_id":"c1","type":"CONTAINS"}]}
JSON
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newPipeline(t *testing.T, store *checksumStore) *indexer.Pipeline {
	t.Helper()
	logger := testLogger()

	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), gomock.Any()).Return("sum", nil).AnyTimes()
	embedder := mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedDocuments(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	sc := scanner.New(store, logger)
	orchestrator := chunker.New([]chunker.ParserConfig{
		{Language: "python", Command: []string{writeParser(t)}},
	}, 2, logger)
	ing := graph.NewIngestor(store, 0, logger)
	worker := summarizer.NewWorker(gen, 5, logger)
	scheduler := summarizer.NewScheduler(store, worker, 50, logger)
	embedWorker := summarizer.NewEmbeddingWorker(store, embedder, summarizer.NewTokenizerAdapter(nil), 32, logger)

	return indexer.New(store, sc, orchestrator, ing, scheduler, embedWorker, logger)
}

func TestIndexRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("class PaymentService: ..."), 0o600); err != nil {
		t.Fatal(err)
	}

	store := &checksumStore{
		FakeStore: &graphtest.FakeStore{Rules: []graphtest.Rule{
			{Contains: "MERGE (n:", Rows: []graph.Row{{"count": int64(1)}}},
			{Contains: "MERGE (source)-", Rows: []graph.Row{{"count": int64(1)}}},
			{Contains: "DETACH DELETE", Rows: []graph.Row{{"deleted": int64(2)}}},
		}},
		stored: map[string]string{"removed.py": "deadbeef"},
	}

	stats, err := newPipeline(t, store).Index(context.Background(), root, indexer.Options{})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	if stats.New != 1 {
		t.Errorf("new = %d, want 1", stats.New)
	}
	if stats.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", stats.Deleted)
	}
	if stats.NodesDeleted != 2 {
		t.Errorf("nodes deleted = %d, want 2 (cascade ran)", stats.NodesDeleted)
	}
	if stats.Ingest.NodesCreated != 2 {
		t.Errorf("nodes created = %d, want 2", stats.Ingest.NodesCreated)
	}
	if stats.Ingest.RelationshipsCreated != 1 {
		t.Errorf("relationships created = %d, want 1", stats.Ingest.RelationshipsCreated)
	}

	// Schema preparation ran before the first write.
	if len(store.QueriesContaining("CREATE CONSTRAINT")) == 0 {
		t.Error("schema setup did not run")
	}
	// The removed file's subgraph was targeted by path.
	deletes := store.QueriesContaining("DETACH DELETE")
	if len(deletes) != 1 || deletes[0].Params["path"] != "removed.py" {
		t.Errorf("cascade calls = %+v", deletes)
	}
}

func TestIndexRunIsIdempotentWhenUnchanged(t *testing.T) {
	root := t.TempDir()
	content := []byte("class PaymentService: ...")
	if err := os.WriteFile(filepath.Join(root, "a.py"), content, 0o600); err != nil {
		t.Fatal(err)
	}
	sum, err := scanner.ChecksumFile(filepath.Join(root, "a.py"))
	if err != nil {
		t.Fatal(err)
	}

	store := &checksumStore{
		FakeStore: &graphtest.FakeStore{},
		stored:    map[string]string{"a.py": sum},
	}

	stats, err := newPipeline(t, store).Index(context.Background(), root, indexer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Unchanged != 1 || stats.New != 0 || stats.Modified != 0 {
		t.Errorf("stats = %+v, want everything unchanged", stats)
	}
	if got := len(store.QueriesContaining("MERGE (n:")); got != 0 {
		t.Errorf("upserts = %d, want 0 for an unchanged workspace", got)
	}
}

package chunker

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sevigo/code-atlas/internal/scanner"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// writeParserScript creates a shell script standing in for a language
// parser. Argument order matches the subprocess contract:
// $1 source, $2 --output, $3 output path, $4 --project-root, $5 root.
func writeParserScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-parser.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

const fragmentJSON = `{
	"language": "python",
	"version": "1.0.0",
	"processed_files": ["a.py"],
	"nodes": [
		{"id": "f1", "label": "File", "name": "a.py", "path": "a.py"},
		{"id": "c1", "label": "Class", "name": "PaymentService"}
	],
	"relationships": [
		{"source_id": "f1", "target_id": "c1", "type": "CONTAINS"}
	]
}`

func pythonChange(root string) scanner.FileChange {
	return scanner.FileChange{
		Path:         "a.py",
		AbsolutePath: filepath.Join(root, "a.py"),
		Status:       scanner.StatusNew,
		Language:     "python",
	}
}

func TestProcessFileParsesFragment(t *testing.T) {
	root := t.TempDir()
	script := writeParserScript(t, `cat > "$3" <<'JSON'
`+fragmentJSON+`
JSON`)

	o := New([]ParserConfig{{Language: "python", Command: []string{script}}}, 2, testLogger())
	frag, err := o.ProcessFile(context.Background(), root, pythonChange(root))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if frag.Language != "python" || len(frag.Nodes) != 2 || len(frag.Relationships) != 1 {
		t.Errorf("fragment = %+v", frag)
	}
	if frag.Nodes[0].Extra["path"] != "a.py" {
		t.Errorf("label extras lost: %v", frag.Nodes[0].Extra)
	}
}

func TestProcessFileNonZeroExit(t *testing.T) {
	root := t.TempDir()
	script := writeParserScript(t, `echo "boom" >&2; exit 3`)

	o := New([]ParserConfig{{Language: "python", Command: []string{script}}}, 2, testLogger())
	_, err := o.ProcessFile(context.Background(), root, pythonChange(root))
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "exited with error") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestProcessFileMalformedOutput(t *testing.T) {
	root := t.TempDir()
	script := writeParserScript(t, `echo "not json" > "$3"`)

	o := New([]ParserConfig{{Language: "python", Command: []string{script}}}, 2, testLogger())
	if _, err := o.ProcessFile(context.Background(), root, pythonChange(root)); err == nil {
		t.Fatal("expected error for malformed fragment")
	}
}

func TestProcessFileUnknownLabelRejected(t *testing.T) {
	root := t.TempDir()
	script := writeParserScript(t, `cat > "$3" <<'JSON'
{"language":"python","version":"1.0.0","nodes":[{"id":"m1","label":"Module","name":"x"}],"relationships":[]}
JSON`)

	o := New([]ParserConfig{{Language: "python", Command: []string{script}}}, 2, testLogger())
	_, err := o.ProcessFile(context.Background(), root, pythonChange(root))
	if err == nil || !strings.Contains(err.Error(), "unknown label") {
		t.Fatalf("expected unknown-label rejection, got %v", err)
	}
}

func TestProcessFileTimeoutKillsProcess(t *testing.T) {
	root := t.TempDir()
	script := writeParserScript(t, `sleep 30`)

	o := New([]ParserConfig{
		{Language: "python", Command: []string{script}, Timeout: 150 * time.Millisecond},
	}, 2, testLogger())

	start := time.Now()
	_, err := o.ProcessFile(context.Background(), root, pythonChange(root))
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timed-out parser not killed promptly (%s)", elapsed)
	}
}

func TestProcessFileNoParser(t *testing.T) {
	root := t.TempDir()
	o := New(nil, 2, testLogger())
	change := pythonChange(root)
	change.Language = "fortran"
	if _, err := o.ProcessFile(context.Background(), root, change); err == nil {
		t.Fatal("expected error for unconfigured language")
	}
}

func TestProcessBatchDropsFailuresAndKeepsRest(t *testing.T) {
	root := t.TempDir()
	good := writeParserScript(t, `cat > "$3" <<'JSON'
`+fragmentJSON+`
JSON`)
	bad := writeParserScript(t, `exit 1`)

	o := New([]ParserConfig{
		{Language: "python", Command: []string{good}},
		{Language: "go", Command: []string{bad}},
	}, 2, testLogger())

	files := []scanner.FileChange{
		pythonChange(root),
		{Path: "b.go", AbsolutePath: filepath.Join(root, "b.go"), Language: "go"},
	}
	fragments := o.ProcessBatch(context.Background(), root, files)
	if len(fragments) != 1 {
		t.Fatalf("fragments = %d, want 1 (failing file dropped, batch continues)", len(fragments))
	}
}

func TestRegisterOverridesParser(t *testing.T) {
	o := New([]ParserConfig{{Language: "python", Command: []string{"old"}}}, 1, testLogger())
	o.Register(ParserConfig{Language: "python", Command: []string{"new"}})
	if got := o.parsers["python"].Command[0]; got != "new" {
		t.Errorf("override not applied: %s", got)
	}
	if o.parsers["python"].Timeout != DefaultParserTimeout {
		t.Error("override must default the timeout")
	}
}

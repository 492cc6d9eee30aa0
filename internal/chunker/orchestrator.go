// Package chunker routes changed source files to language-specific parser
// subprocesses and merges their JSON output into canonical graph fragments.
package chunker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/code-atlas/internal/core"
	"github.com/sevigo/code-atlas/internal/scanner"
)

// ParserConfig describes how to launch one language's parser executable.
type ParserConfig struct {
	Language string
	// Command is the executable plus any fixed leading arguments. The
	// orchestrator appends: <source_path> --output <tmp_json>
	// --project-root <root>.
	Command []string
	Timeout time.Duration
}

// DefaultParserTimeout bounds a single parser run.
const DefaultParserTimeout = 5 * time.Minute

// DefaultMaxConcurrent bounds in-flight parser subprocesses.
const DefaultMaxConcurrent = 5

// Orchestrator owns parser process and temp-file lifetime for a batch of
// changed files.
type Orchestrator struct {
	parsers       map[string]ParserConfig
	maxConcurrent int
	logger        *slog.Logger
}

// New creates an Orchestrator. Parsers are keyed by language name as
// produced by the scanner's extension map.
func New(parsers []ParserConfig, maxConcurrent int, logger *slog.Logger) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	byLang := make(map[string]ParserConfig, len(parsers))
	for _, p := range parsers {
		if p.Timeout <= 0 {
			p.Timeout = DefaultParserTimeout
		}
		byLang[p.Language] = p
	}
	return &Orchestrator{
		parsers:       byLang,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Register adds or replaces the parser for a language, used for
// per-workspace overrides.
func (o *Orchestrator) Register(p ParserConfig) {
	if p.Timeout <= 0 {
		p.Timeout = DefaultParserTimeout
	}
	o.parsers[p.Language] = p
}

// Languages returns the languages with a configured parser.
func (o *Orchestrator) Languages() []string {
	langs := make([]string, 0, len(o.parsers))
	for lang := range o.parsers {
		langs = append(langs, lang)
	}
	return langs
}

// ProcessBatch runs the appropriate parser for every file concurrently,
// bounded by maxConcurrent, and gathers fragments as they complete. A
// failing file is logged and dropped; it never blocks or aborts the rest of
// the batch.
func (o *Orchestrator) ProcessBatch(ctx context.Context, projectRoot string, files []scanner.FileChange) []*core.Fragment {
	o.logger.Info("chunking changed files", "files", len(files), "max_concurrent", o.maxConcurrent)

	var (
		mu        sync.Mutex
		fragments []*core.Fragment
		failed    int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)

	for _, file := range files {
		g.Go(func() error {
			frag, err := o.ProcessFile(ctx, projectRoot, file)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.Error("parser failed, dropping file", "path", file.Path, "error", err)
				failed++
				return nil
			}
			fragments = append(fragments, frag)
			return nil
		})
	}
	_ = g.Wait()

	o.logger.Info("chunking complete", "succeeded", len(fragments), "failed", failed)
	return fragments
}

// ProcessFile launches the parser subprocess for one file and returns its
// validated fragment. The temporary output file is removed on every exit
// path; a timed-out process is killed.
func (o *Orchestrator) ProcessFile(ctx context.Context, projectRoot string, file scanner.FileChange) (*core.Fragment, error) {
	parser, ok := o.parsers[file.Language]
	if !ok {
		return nil, fmt.Errorf("no parser configured for language %q", file.Language)
	}

	tmp, err := os.CreateTemp("", "atlas-fragment-*.json")
	if err != nil {
		return nil, fmt.Errorf("create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	runCtx, cancel := context.WithTimeout(ctx, parser.Timeout)
	defer cancel()

	args := append(append([]string{}, parser.Command[1:]...),
		file.AbsolutePath, "--output", tmpPath, "--project-root", projectRoot)
	cmd := exec.CommandContext(runCtx, parser.Command[0], args...)
	cmd.Dir = projectRoot
	cmd.WaitDelay = time.Second

	out, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("parser timed out after %s", parser.Timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("parser exited with error: %w (output: %s)", err, truncate(string(out), 512))
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read parser output: %w", err)
	}

	var frag core.Fragment
	if err := json.Unmarshal(data, &frag); err != nil {
		return nil, fmt.Errorf("decode fragment: %w", err)
	}
	if err := ValidateFragment(&frag); err != nil {
		return nil, fmt.Errorf("invalid fragment: %w", err)
	}

	o.logger.Debug("parsed file",
		"path", file.Path,
		"nodes", len(frag.Nodes),
		"relationships", len(frag.Relationships),
	)
	return &frag, nil
}

// ValidateParsers checks that every configured parser executable responds
// to --version. Returns a map of language to success.
func (o *Orchestrator) ValidateParsers(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(o.parsers))
	for lang, parser := range o.parsers {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		cmd := exec.CommandContext(checkCtx, parser.Command[0], "--version")
		err := cmd.Run()
		cancel()
		results[lang] = err == nil
		if err != nil {
			o.logger.Warn("parser validation failed", "language", lang, "error", err)
		}
	}
	return results
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// Package indexer orchestrates one end-to-end ingestion run: change
// detection, deletion cascade, chunking, graph ingestion, and the optional
// enrichment pass.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/code-atlas/internal/atlaserr"
	"github.com/sevigo/code-atlas/internal/chunker"
	"github.com/sevigo/code-atlas/internal/core"
	"github.com/sevigo/code-atlas/internal/graph"
	"github.com/sevigo/code-atlas/internal/metrics"
	"github.com/sevigo/code-atlas/internal/scanner"
	"github.com/sevigo/code-atlas/internal/summarizer"
)

// Options tunes one ingestion run.
type Options struct {
	// Summarize runs the hierarchical summarizer and the embedding worker
	// after ingestion.
	Summarize bool
	// ExtraIgnoreDirs supplements the scanner's built-in ignore set,
	// typically from the workspace's .code-atlas.yml.
	ExtraIgnoreDirs []string
}

// RunStats reports the outcome of one ingestion run.
type RunStats struct {
	New       int
	Modified  int
	Unchanged int
	Deleted   int

	NodesDeleted int
	Ingest       graph.IngestStats

	SummaryCounts map[string]int
	Embedded      int

	Duration time.Duration
}

// Pipeline wires the scanner, chunker, ingestor, and enrichment workers.
type Pipeline struct {
	store       graph.Store
	scanner     *scanner.Scanner
	chunker     *chunker.Orchestrator
	ingestor    *graph.Ingestor
	scheduler   *summarizer.Scheduler
	embedWorker *summarizer.EmbeddingWorker
	dimensions  int
	logger      *slog.Logger
}

// New creates a Pipeline.
func New(
	store graph.Store,
	sc *scanner.Scanner,
	ch *chunker.Orchestrator,
	ing *graph.Ingestor,
	scheduler *summarizer.Scheduler,
	embedWorker *summarizer.EmbeddingWorker,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		store:       store,
		scanner:     sc,
		chunker:     ch,
		ingestor:    ing,
		scheduler:   scheduler,
		embedWorker: embedWorker,
		dimensions:  core.EmbeddingDimensions,
		logger:      logger,
	}
}

// Index runs the full pipeline against one workspace root. Per-file
// failures are absorbed by the stages themselves; store-level, change
// detection and enrichment failures abort the run.
func (p *Pipeline) Index(ctx context.Context, root string, opts Options) (*RunStats, error) {
	start := time.Now()
	m := metrics.Get()
	stats := &RunStats{}

	if err := graph.EnsureSchema(ctx, p.store, p.dimensions); err != nil {
		return nil, atlaserr.New(atlaserr.KindStore, "schema setup", err)
	}

	p.scanner.ExtraIgnoreDirs = opts.ExtraIgnoreDirs

	scanStart := time.Now()
	changes, err := p.scanner.DetectChanges(ctx, root)
	if err != nil {
		return nil, atlaserr.New(atlaserr.KindIO, "change detection", err)
	}
	m.ScanDuration.Observe(time.Since(scanStart).Seconds())

	for _, change := range changes {
		switch change.Status {
		case scanner.StatusNew:
			stats.New++
			m.FilesNew.Inc()
		case scanner.StatusModified:
			stats.Modified++
			m.FilesModified.Inc()
		case scanner.StatusUnchanged:
			stats.Unchanged++
			m.FilesUnchanged.Inc()
		case scanner.StatusDeleted:
			stats.Deleted++
			m.FilesDeleted.Inc()
		}
	}
	p.logger.Info("change detection complete",
		"new", stats.New, "modified", stats.Modified,
		"unchanged", stats.Unchanged, "deleted", stats.Deleted,
	)

	for _, deleted := range scanner.Deleted(changes) {
		removed, err := p.ingestor.DeleteFileSubgraph(ctx, deleted.Path)
		if err != nil {
			p.logger.Error("deletion cascade failed", "path", deleted.Path, "error", err)
			continue
		}
		stats.NodesDeleted += removed
		m.NodesDeleted.Add(float64(removed))
	}

	toProcess := scanner.ToProcess(changes)
	if len(toProcess) > 0 {
		chunkStart := time.Now()
		fragments := p.chunker.ProcessBatch(ctx, root, toProcess)
		m.ChunkDuration.Observe(time.Since(chunkStart).Seconds())
		m.FragmentsParsed.Add(float64(len(fragments)))
		m.FragmentsFailed.Add(float64(len(toProcess) - len(fragments)))

		ingestStart := time.Now()
		stats.Ingest = p.ingestor.Ingest(ctx, fragments)
		m.IngestDuration.Observe(time.Since(ingestStart).Seconds())
		m.NodesUpserted.Add(float64(stats.Ingest.NodesCreated))
		m.RelationshipsUpserted.Add(float64(stats.Ingest.RelationshipsCreated))
		m.IngestErrors.Add(float64(stats.Ingest.Errors))
	} else {
		p.logger.Info("no files to parse, skipping chunking and ingestion")
	}

	if opts.Summarize {
		counts, embedded, err := p.Enrich(ctx)
		if err != nil {
			return stats, err
		}
		stats.SummaryCounts = counts
		stats.Embedded = embedded
	}

	stats.Duration = time.Since(start)
	p.logger.Info("ingestion run complete", "duration", stats.Duration)
	return stats, nil
}

// Enrich drives summarization to quiescence and then fills missing
// embeddings.
func (p *Pipeline) Enrich(ctx context.Context) (map[string]int, int, error) {
	counts, err := p.scheduler.Run(ctx)
	if err != nil {
		return counts, 0, atlaserr.New(atlaserr.KindProvider, "summarization", err)
	}
	m := metrics.Get()
	for _, n := range counts {
		m.SummariesGenerated.Add(float64(n))
	}

	embedded, err := p.embedWorker.Run(ctx)
	if err != nil {
		return counts, embedded, atlaserr.New(atlaserr.KindProvider, "embedding", err)
	}
	m.EmbeddingsComputed.Add(float64(embedded))
	return counts, embedded, nil
}

// Reset clears stale summarization leases.
func (p *Pipeline) Reset(ctx context.Context) (int, error) {
	return p.scheduler.Reset(ctx)
}

// Progress reports per-level summarization progress.
func (p *Pipeline) Progress(ctx context.Context) (map[string]summarizer.LevelProgress, error) {
	return p.scheduler.Progress(ctx)
}

// RegisterParser adds or replaces a language parser, used for
// per-workspace overrides.
func (p *Pipeline) RegisterParser(cfg chunker.ParserConfig) {
	p.chunker.Register(cfg)
}

// ValidateParsers probes every configured parser executable.
func (p *Pipeline) ValidateParsers(ctx context.Context) map[string]bool {
	return p.chunker.ValidateParsers(ctx)
}

// String renders run stats for CLI output.
func (s *RunStats) String() string {
	return fmt.Sprintf(
		"new=%d modified=%d unchanged=%d deleted=%d nodes=%d relationships=%d removed=%d errors=%d duration=%s",
		s.New, s.Modified, s.Unchanged, s.Deleted,
		s.Ingest.NodesCreated, s.Ingest.RelationshipsCreated,
		s.NodesDeleted, s.Ingest.Errors, s.Duration.Round(time.Millisecond),
	)
}

package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/goframe/llms"
)

// DefaultLLMConcurrency caps in-flight LLM requests.
const DefaultLLMConcurrency = 5

// Generator is the narrow LLM surface the worker needs.
//
//go:generate mockgen -destination=../../mocks/mock_generator.go -package=mocks github.com/sevigo/code-atlas/internal/summarizer Generator
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMGenerator adapts a goframe model to Generator, pinning the low
// temperature and token budget summaries are produced with and enforcing a
// hard per-call timeout.
type LLMGenerator struct {
	model       llms.Model
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// NewLLMGenerator creates a Generator around a goframe model.
func NewLLMGenerator(model llms.Model, temperature float64, maxTokens int, timeout time.Duration) *LLMGenerator {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &LLMGenerator{
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}
}

// Generate runs one completion with a hard timeout. The provider goroutine
// never blocks past the parent's cancellation.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		text, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
			llms.WithTemperature(g.temperature),
			llms.WithMaxTokens(g.maxTokens),
		)
		select {
		case resultCh <- result{text, err}:
		case <-ctx.Done():
		}
	}()

	select {
	case res := <-resultCh:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SummaryRequest is one node's summarization job.
type SummaryRequest struct {
	NodeID string
	Prompt string
}

// SummaryResult is the outcome of one summarization job.
type SummaryResult struct {
	NodeID  string
	Summary string
	Err     error
}

// Worker fans summary requests out to the LLM with bounded concurrency.
type Worker struct {
	gen         Generator
	concurrency int
	logger      *slog.Logger
}

// NewWorker creates a Worker. A non-positive concurrency selects the
// default of 5.
func NewWorker(gen Generator, concurrency int, logger *slog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = DefaultLLMConcurrency
	}
	return &Worker{
		gen:         gen,
		concurrency: concurrency,
		logger:      logger,
	}
}

// GenerateSummaries runs all requests with at most `concurrency` in flight
// and returns one result per request, in request order. Individual failures
// are reported in the result, never aborting the batch.
func (w *Worker) GenerateSummaries(ctx context.Context, requests []SummaryRequest) []SummaryResult {
	results := make([]SummaryResult, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for i, req := range requests {
		g.Go(func() error {
			summary, err := w.gen.Generate(ctx, req.Prompt)
			if err != nil {
				w.logger.Warn("summary generation failed", "node", req.NodeID, "error", err)
				results[i] = SummaryResult{NodeID: req.NodeID, Err: fmt.Errorf("generate summary: %w", err)}
				return nil
			}
			results[i] = SummaryResult{NodeID: req.NodeID, Summary: summary}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

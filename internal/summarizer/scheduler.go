package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/code-atlas/internal/core"
	"github.com/sevigo/code-atlas/internal/graph"
)

// DefaultBatchSize is the number of candidate nodes fetched per scheduling
// round.
const DefaultBatchSize = 50

// levelPause smooths provider rate limits between level iterations.
const levelPause = time.Second

// candidate is one node eligible for summarization.
type candidate struct {
	ID       string
	Name     string
	FullName string
	RawCode  string
}

// LevelProgress reports summarization state for one level.
type LevelProgress struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Processing int64 `json:"processing"`
	Remaining  int64 `json:"remaining"`
}

// Scheduler walks the eight levels bottom-up and drives the worker until
// every eligible node carries a summary. The summary_status property acts
// as an advisory lease: claimed before generation, completed on success,
// cleared on failure so a later run can retry.
type Scheduler struct {
	store     graph.Store
	worker    *Worker
	batchSize int
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler. A non-positive batchSize selects the
// default of 50.
func NewScheduler(store graph.Store, worker *Worker, batchSize int, logger *slog.Logger) *Scheduler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scheduler{
		store:     store,
		worker:    worker,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run processes every level in order until quiescence and returns the count
// of nodes summarized per level.
func (s *Scheduler) Run(ctx context.Context) (map[string]int, error) {
	s.logger.Info("starting hierarchical summarization")
	counts := make(map[string]int, len(LevelOrder))

	for _, level := range LevelOrder {
		processed, err := s.processLevel(ctx, level)
		if err != nil {
			return counts, fmt.Errorf("level %s: %w", level, err)
		}
		counts[string(level)] = processed

		select {
		case <-time.After(levelPause):
		case <-ctx.Done():
			return counts, ctx.Err()
		}
	}

	s.logger.Info("hierarchical summarization complete", "levels", len(LevelOrder))
	return counts, nil
}

// processLevel repeatedly claims and summarizes ready nodes at one level
// until no claimable work remains.
func (s *Scheduler) processLevel(ctx context.Context, level core.Label) (int, error) {
	s.logger.Info("processing summarization level", "level", level)
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		ready, err := s.claimReady(ctx, level)
		if err != nil {
			return total, err
		}
		if len(ready) == 0 {
			break
		}

		requests := make([]SummaryRequest, 0, len(ready))
		for _, node := range ready {
			children, err := s.childSummaries(ctx, node.ID)
			if err != nil {
				s.logger.Warn("fetching child summaries", "node", node.ID, "error", err)
			}
			related, err := s.relatedSummaries(ctx, node.ID)
			if err != nil {
				s.logger.Warn("fetching related summaries", "node", node.ID, "error", err)
			}
			requests = append(requests, SummaryRequest{
				NodeID: node.ID,
				Prompt: buildPrompt(promptInput{
					Name:     node.Name,
					Label:    level,
					RawCode:  node.RawCode,
					Children: children,
					Related:  related,
				}),
			})
		}

		succeeded := 0
		for _, result := range s.worker.GenerateSummaries(ctx, requests) {
			if result.Err != nil || result.Summary == "" {
				// Clearing the lease lets a later invocation retry; a
				// placeholder summary would wrongly satisfy the readiness
				// predicate of the node's parents.
				if err := s.releaseLease(ctx, result.NodeID); err != nil {
					s.logger.Error("releasing lease", "node", result.NodeID, "error", err)
				}
				continue
			}
			if err := s.writeSummary(ctx, result.NodeID, result.Summary); err != nil {
				s.logger.Error("writing summary", "node", result.NodeID, "error", err)
				if err := s.releaseLease(ctx, result.NodeID); err != nil {
					s.logger.Error("releasing lease", "node", result.NodeID, "error", err)
				}
				continue
			}
			succeeded++
		}
		total += succeeded
		s.logger.Info("summarized batch", "level", level, "succeeded", succeeded, "claimed", len(ready))

		// Nothing succeeded: the remaining candidates are either failing or
		// blocked; stop rather than spin on them.
		if succeeded == 0 {
			break
		}
	}

	s.logger.Info("level complete", "level", level, "processed", total)
	return total, nil
}

// claimReady fetches unclaimed, unsummarized nodes at the level, filters to
// those whose children are all summarized, and leases them in one write.
func (s *Scheduler) claimReady(ctx context.Context, level core.Label) ([]candidate, error) {
	rows, err := s.store.Run(ctx, fmt.Sprintf(
		`MATCH (n:%s)
		 WHERE (n.generated_summary IS NULL OR n.generated_summary = '')
		   AND (n.summary_status IS NULL
		        OR NOT n.summary_status IN [$processing, $completed])
		 RETURN n.id AS id, n.name AS name, n.full_name AS full_name, n.raw_code AS raw_code
		 ORDER BY n.full_name
		 LIMIT $limit`, level),
		map[string]any{
			"processing": core.SummaryStatusProcessing,
			"completed":  core.SummaryStatusCompleted,
			"limit":      s.batchSize,
		})
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	var ready []candidate
	for _, row := range rows {
		node := candidate{
			ID:       row.String("id"),
			Name:     row.String("name"),
			FullName: row.String("full_name"),
			RawCode:  row.String("raw_code"),
		}
		ok, err := s.childrenReady(ctx, node.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			ready = append(ready, node)
		}
	}
	if len(ready) == 0 {
		return nil, nil
	}

	ids := make([]string, len(ready))
	for i, node := range ready {
		ids[i] = node.ID
	}
	_, err = s.store.Run(ctx,
		`UNWIND $ids AS id
		 MATCH (n {id: id})
		 SET n.summary_status = $processing`,
		map[string]any{"ids": ids, "processing": core.SummaryStatusProcessing})
	if err != nil {
		return nil, fmt.Errorf("claim nodes: %w", err)
	}
	return ready, nil
}

// childrenReady reports whether every summarizable child reached via
// CONTAINS, DEFINES, or DECLARES already carries a non-empty summary.
func (s *Scheduler) childrenReady(ctx context.Context, id string) (bool, error) {
	rows, err := s.store.Run(ctx,
		`MATCH (parent {id: $id})-[:CONTAINS|DEFINES|DECLARES]->(child)
		 WHERE (child.generated_summary IS NULL OR child.generated_summary = '')
		   AND labels(child)[0] IN $summarizable
		 RETURN count(child) AS unsummarized`,
		map[string]any{"id": id, "summarizable": summarizableLabelNames()})
	if err != nil {
		return false, fmt.Errorf("readiness check for %s: %w", id, err)
	}
	if len(rows) == 0 {
		return true, nil
	}
	return rows[0].Int("unsummarized") == 0, nil
}

func (s *Scheduler) childSummaries(ctx context.Context, id string) ([]string, error) {
	rows, err := s.store.Run(ctx,
		`MATCH (parent {id: $id})-[:CONTAINS|DEFINES|DECLARES]->(child)
		 WHERE child.generated_summary IS NOT NULL AND child.generated_summary <> ''
		 RETURN child.name AS name, child.generated_summary AS summary
		 ORDER BY child.name
		 LIMIT $limit`,
		map[string]any{"id": id, "limit": maxChildSnippets})
	if err != nil {
		return nil, err
	}
	return snippetList(rows), nil
}

func (s *Scheduler) relatedSummaries(ctx context.Context, id string) ([]string, error) {
	rows, err := s.store.Run(ctx,
		`MATCH (n {id: $id})-[:CALLS|USES|REFERENCES]->(related)
		 WHERE related.generated_summary IS NOT NULL AND related.generated_summary <> ''
		 RETURN related.name AS name, related.generated_summary AS summary
		 LIMIT $limit`,
		map[string]any{"id": id, "limit": maxRelatedSnippets})
	if err != nil {
		return nil, err
	}
	return snippetList(rows), nil
}

func (s *Scheduler) writeSummary(ctx context.Context, id, summary string) error {
	_, err := s.store.Run(ctx,
		`MATCH (n {id: $id})
		 SET n.generated_summary = $summary, n.summary_status = $completed`,
		map[string]any{"id": id, "summary": summary, "completed": core.SummaryStatusCompleted})
	return err
}

func (s *Scheduler) releaseLease(ctx context.Context, id string) error {
	_, err := s.store.Run(ctx,
		`MATCH (n {id: $id}) REMOVE n.summary_status`,
		map[string]any{"id": id})
	return err
}

// Reset clears every processing lease. Safe to call whenever no worker is
// known to hold one; leases are not durable across restarts.
func (s *Scheduler) Reset(ctx context.Context) (int, error) {
	rows, err := s.store.Run(ctx,
		`MATCH (n)
		 WHERE n.summary_status = $processing
		 REMOVE n.summary_status
		 RETURN count(n) AS cleared`,
		map[string]any{"processing": core.SummaryStatusProcessing})
	if err != nil {
		return 0, fmt.Errorf("reset leases: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	cleared := int(rows[0].Int("cleared"))
	s.logger.Info("cleared summarization leases", "count", cleared)
	return cleared, nil
}

// Progress reports per-level summarization state.
func (s *Scheduler) Progress(ctx context.Context) (map[string]LevelProgress, error) {
	progress := make(map[string]LevelProgress, len(LevelOrder))
	for _, level := range LevelOrder {
		rows, err := s.store.Run(ctx, fmt.Sprintf(
			`MATCH (n:%s)
			 RETURN count(n) AS total,
			        count(CASE WHEN n.generated_summary IS NOT NULL AND n.generated_summary <> '' THEN 1 END) AS completed,
			        count(CASE WHEN n.summary_status = $processing THEN 1 END) AS processing`, level),
			map[string]any{"processing": core.SummaryStatusProcessing})
		if err != nil {
			return nil, fmt.Errorf("progress for %s: %w", level, err)
		}
		if len(rows) == 0 || rows[0].Int("total") == 0 {
			continue
		}
		row := rows[0]
		progress[string(level)] = LevelProgress{
			Total:      row.Int("total"),
			Completed:  row.Int("completed"),
			Processing: row.Int("processing"),
			Remaining:  row.Int("total") - row.Int("completed"),
		}
	}
	return progress, nil
}

func snippetList(rows []graph.Row) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.String("name")+": "+row.String("summary"))
	}
	return out
}

func summarizableLabelNames() []string {
	names := make([]string, len(core.SummarizableLabels))
	for i, label := range core.SummarizableLabels {
		names[i] = string(label)
	}
	return names
}

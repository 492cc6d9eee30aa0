// Package metrics holds the Prometheus instrumentation for the ingestion
// and search pipelines.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline aggregates the counters and histograms for one process.
type Pipeline struct {
	once sync.Once

	// Change detection
	FilesNew       prometheus.Counter
	FilesModified  prometheus.Counter
	FilesUnchanged prometheus.Counter
	FilesDeleted   prometheus.Counter

	// Chunking and ingestion
	FragmentsParsed       prometheus.Counter
	FragmentsFailed       prometheus.Counter
	NodesUpserted         prometheus.Counter
	RelationshipsUpserted prometheus.Counter
	NodesDeleted          prometheus.Counter
	IngestErrors          prometheus.Counter

	// Enrichment
	SummariesGenerated prometheus.Counter
	SummariesFailed    prometheus.Counter
	EmbeddingsComputed prometheus.Counter

	// Search
	SearchRequests prometheus.Counter

	// Durations
	ScanDuration   prometheus.Histogram
	ChunkDuration  prometheus.Histogram
	IngestDuration prometheus.Histogram
	SearchDuration prometheus.Histogram
}

var pipeline Pipeline

// Get returns the process-wide pipeline metrics, registering them on first
// use.
func Get() *Pipeline {
	pipeline.init()
	return &pipeline
}

func (m *Pipeline) init() {
	m.once.Do(func() {
		m.FilesNew = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_scan_files_new_total", Help: "Files classified as new"})
		m.FilesModified = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_scan_files_modified_total", Help: "Files classified as modified"})
		m.FilesUnchanged = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_scan_files_unchanged_total", Help: "Files classified as unchanged"})
		m.FilesDeleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_scan_files_deleted_total", Help: "Files classified as deleted"})

		m.FragmentsParsed = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_chunk_fragments_total", Help: "Fragments parsed successfully"})
		m.FragmentsFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_chunk_failures_total", Help: "Files whose parser run failed"})
		m.NodesUpserted = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_ingest_nodes_total", Help: "Nodes upserted"})
		m.RelationshipsUpserted = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_ingest_relationships_total", Help: "Relationships upserted"})
		m.NodesDeleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_ingest_nodes_deleted_total", Help: "Nodes removed by deletion cascade"})
		m.IngestErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_ingest_errors_total", Help: "Failed ingestion batches"})

		m.SummariesGenerated = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_summaries_generated_total", Help: "Node summaries written"})
		m.SummariesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_summaries_failed_total", Help: "Summary generations that failed"})
		m.EmbeddingsComputed = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_embeddings_computed_total", Help: "Embeddings computed and stored"})

		m.SearchRequests = prometheus.NewCounter(prometheus.CounterOpts{Name: "atlas_search_requests_total", Help: "Search requests served"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
		m.ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "atlas_scan_seconds", Help: "Change detection duration", Buckets: buckets})
		m.ChunkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "atlas_chunk_seconds", Help: "Chunking duration", Buckets: buckets})
		m.IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "atlas_ingest_seconds", Help: "Ingestion duration", Buckets: buckets})
		m.SearchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "atlas_search_seconds", Help: "Search request duration", Buckets: buckets})

		prometheus.MustRegister(
			m.FilesNew, m.FilesModified, m.FilesUnchanged, m.FilesDeleted,
			m.FragmentsParsed, m.FragmentsFailed,
			m.NodesUpserted, m.RelationshipsUpserted, m.NodesDeleted, m.IngestErrors,
			m.SummariesGenerated, m.SummariesFailed, m.EmbeddingsComputed,
			m.SearchRequests,
			m.ScanDuration, m.ChunkDuration, m.IngestDuration, m.SearchDuration,
		)
	})
}

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Config holds the graph database connection settings.
type Config struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// DB is the Neo4j-backed Store implementation.
type DB struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewDB connects to the graph database and verifies connectivity. The
// returned cleanup closes the driver.
func NewDB(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, func(), error) {
	if cfg.URI == "" {
		return nil, nil, fmt.Errorf("graph database URI is not configured")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, nil, fmt.Errorf("create graph driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, nil, fmt.Errorf("graph store unreachable at %s: %w", cfg.URI, err)
	}

	db := &DB{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
	}
	cleanup := func() {
		if err := driver.Close(context.Background()); err != nil {
			logger.Warn("closing graph driver", "error", err)
		}
	}
	logger.Info("connected to graph store", "uri", cfg.URI, "database", cfg.Database)
	return db, cleanup, nil
}

// Run executes a single parameterized query and eagerly collects the result.
func (d *DB) Run(ctx context.Context, query string, params map[string]any) ([]Row, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(d.database),
	)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	rows := make([]Row, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, flattenRecord(record))
	}
	return rows, nil
}

// VectorKNN queries a per-label vector index via the store's native
// nearest-neighbour procedure. When the procedure is unavailable it falls
// back to an exhaustive scan with cosine similarity computed client-side.
func (d *DB) VectorKNN(ctx context.Context, index string, k int, vec []float32) ([]Row, error) {
	params := map[string]any{
		"index": index,
		"k":     k,
		"vec":   toFloat64(vec),
	}
	rows, err := d.Run(ctx,
		`CALL db.index.vector.queryNodes($index, $k, $vec)
		 YIELD node, score
		 RETURN node, score`, params)
	if err == nil {
		return rows, nil
	}

	d.logger.Warn("native vector query unavailable, falling back to exhaustive scan",
		"index", index, "error", err)
	return d.exhaustiveKNN(ctx, index, k, vec)
}

func (d *DB) exhaustiveKNN(ctx context.Context, index string, k int, vec []float32) ([]Row, error) {
	label, ok := labelForVectorIndex(index)
	if !ok {
		return nil, fmt.Errorf("unknown vector index %q", index)
	}

	rows, err := d.Run(ctx, fmt.Sprintf(
		`MATCH (n:%s) WHERE n.embedding IS NOT NULL RETURN n AS node`, label), nil)
	if err != nil {
		return nil, err
	}

	scored := make([]Row, 0, len(rows))
	for _, row := range rows {
		candidate := row.Floats("embedding")
		if len(candidate) == 0 {
			continue
		}
		row["score"] = cosine(vec, candidate)
		scored = append(scored, row)
	}
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Float("score") > scored[j].Float("score")
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// flattenRecord merges node values into the row so callers see node
// properties directly, alongside scalar aliases such as "score".
func flattenRecord(record *neo4j.Record) Row {
	row := make(Row, len(record.Keys))
	for _, key := range record.Keys {
		value, _ := record.Get(key)
		node, isNode := value.(dbtype.Node)
		if !isNode {
			row[key] = value
			continue
		}
		for prop, propValue := range node.Props {
			if _, taken := row[prop]; !taken {
				row[prop] = propValue
			}
		}
		if len(node.Labels) > 0 {
			row["node_type"] = node.Labels[0]
		}
	}
	return row
}

func cosine(a []float32, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

func labelForVectorIndex(index string) (string, bool) {
	name, ok := strings.CutSuffix(index, "_embedding_index")
	if !ok || name == "" {
		return "", false
	}
	return strings.ToUpper(name[:1]) + name[1:], true
}

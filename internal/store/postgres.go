// File: internal/store/postgres.go
// Description: Optional Postgres mirror of the metrics store, for querying
// benchmark history across machines. Enabled when store.database_url is set;
// the filesystem store remains the source of truth either way.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
)

// DBPool abstracts pgxpool.Pool so tests can substitute a mock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PostgresStore appends run and metric records to Postgres.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id           TEXT PRIMARY KEY,
    tool_id          TEXT NOT NULL,
    repository_id    TEXT NOT NULL,
    branch           TEXT NOT NULL DEFAULT '',
    started_at       TIMESTAMPTZ NOT NULL,
    duration_seconds DOUBLE PRECISION NOT NULL,
    outcome          TEXT NOT NULL,
    error            TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS metrics (
    id           BIGSERIAL PRIMARY KEY,
    kind         TEXT NOT NULL,
    subject      TEXT NOT NULL,
    sample_id    TEXT NOT NULL,
    computed_at  TIMESTAMPTZ NOT NULL,
    record       JSONB NOT NULL
);
`

// Connect opens a pool against the given URL and verifies it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

// NewPostgresStore verifies the connection and ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &PostgresStore{
		pool: pool,
		log:  logger.Named("store.postgres"),
	}, nil
}

// SaveRun appends one run record. The raw document stays on disk; the
// database carries the queryable fields only.
func (s *PostgresStore) SaveRun(ctx context.Context, record *schemas.RunRecord) error {
	const sql = `
        INSERT INTO runs (run_id, tool_id, repository_id, branch, started_at, duration_seconds, outcome, error)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (run_id) DO NOTHING;
    `
	_, err := s.pool.Exec(ctx, sql,
		record.RunID, record.ToolID, record.RepositoryID, record.Branch,
		record.StartedAt.UTC(), record.DurationSeconds, string(record.Outcome), record.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

// SaveMetrics bulk-appends metric records for one sample.
func (s *PostgresStore) SaveMetrics(ctx context.Context, sampleID string, records []schemas.MetricRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]interface{}, len(records))
	for i := range records {
		r := &records[i]
		rows[i] = []interface{}{
			string(r.Kind), r.Subject, sampleID, r.ComputedAt.UTC(), r,
		}
	}
	copied, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"metrics"},
		[]string{"kind", "subject", "sample_id", "computed_at", "record"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy metric records: %w", err)
	}
	if int(copied) != len(records) {
		return fmt.Errorf("mismatch in copied metric count: expected %d, got %d", len(records), copied)
	}
	s.log.Debug("Metric records persisted", zap.String("sample", sampleID), zap.Int("count", len(records)))
	return nil
}

// RunsByTool reads run records back for a tool, newest first.
func (s *PostgresStore) RunsByTool(ctx context.Context, toolID string) ([]schemas.RunRecord, error) {
	const sql = `
        SELECT run_id, tool_id, repository_id, branch, started_at, duration_seconds, outcome, error
        FROM runs
        WHERE tool_id = $1
        ORDER BY started_at DESC;
    `
	rows, err := s.pool.Query(ctx, sql, toolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []schemas.RunRecord
	for rows.Next() {
		var r schemas.RunRecord
		var outcome string
		if err := rows.Scan(&r.RunID, &r.ToolID, &r.RepositoryID, &r.Branch,
			&r.StartedAt, &r.DurationSeconds, &outcome, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Outcome = schemas.OutcomeKind(outcome)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return records, nil
}

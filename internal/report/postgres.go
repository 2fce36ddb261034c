package report

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/buildshortcut/shortcut/internal/platform"
)

// PostgresSink stores reports as rows of shortcut_runs.
type PostgresSink struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, applies pending migrations and returns a sink.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := platform.AutoMigrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresSink{db: db}, nil
}

// NewPostgresSink wraps an already migrated database.
func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// Publish inserts the report. Publishing the same report twice is a no-op.
func (s *PostgresSink) Publish(ctx context.Context, r *Report) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shortcut_runs (id, created_at, checkout_root, changed_projects, scenarios,
		   affected_projects, project_paths, build_options, exit_code, nothing_to_build,
		   dry_run, duration_ms, error_kind, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (id) DO NOTHING`,
		r.ID, r.CreatedAt, r.CheckoutRoot,
		pq.Array(r.ChangedProjects), pq.Array(r.Scenarios), pq.Array(r.AffectedProjects),
		pq.Array(r.ProjectPaths), pq.Array(r.BuildOptions),
		r.ExitCode, r.NothingToBuild, r.DryRun, r.DurationMS, r.ErrorKind, r.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns the IDs of the most recent reports, newest first.
func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM shortcut_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

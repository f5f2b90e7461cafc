// Package store persists sources, ACM records, extraction runs, and jobs in
// an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle. All methods are safe for concurrent use;
// SQLite serializes writes and busy_timeout covers lock contention.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for tests. The ping retries briefly because a database on
// network storage can take a moment to become writable.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	if path == ":memory:" {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite is in-process; a single writer connection avoids
	// SQLITE_BUSY churn under concurrent jobs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(200*time.Millisecond),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("database ready", "path", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	school_code   TEXT NOT NULL DEFAULT '',
	file_path     TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS acm_records (
	id                        TEXT PRIMARY KEY,
	source_id                 TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
	school_name               TEXT NOT NULL,
	school_code               TEXT NOT NULL DEFAULT '',
	building_id               TEXT NOT NULL,
	building_name             TEXT NOT NULL DEFAULT '',
	building_year             INTEGER NOT NULL DEFAULT 0,
	building_construction     TEXT NOT NULL DEFAULT '',
	room_id                   TEXT NOT NULL DEFAULT '',
	room_name                 TEXT NOT NULL DEFAULT '',
	room_area                 REAL NOT NULL DEFAULT 0,
	area_type                 TEXT NOT NULL DEFAULT 'Interior',
	product                   TEXT NOT NULL,
	material_description      TEXT NOT NULL,
	extent                    TEXT NOT NULL DEFAULT '',
	location                  TEXT NOT NULL DEFAULT '',
	friable                   TEXT NOT NULL DEFAULT '',
	material_condition        TEXT NOT NULL DEFAULT '',
	risk_status               TEXT NOT NULL DEFAULT '',
	result                    TEXT NOT NULL,
	page_number               INTEGER NOT NULL DEFAULT 0,
	disturbance_potential     TEXT NOT NULL DEFAULT '',
	sample_no                 TEXT NOT NULL DEFAULT '',
	sample_result             TEXT NOT NULL DEFAULT '',
	identifying_company       TEXT NOT NULL DEFAULT '',
	quantity                  TEXT NOT NULL DEFAULT '',
	acm_labelled              INTEGER,
	acm_label_details         TEXT NOT NULL DEFAULT '',
	hygienist_recommendations TEXT NOT NULL DEFAULT '',
	psb_supplied_acm_id       TEXT NOT NULL DEFAULT '',
	removal_status            TEXT NOT NULL DEFAULT '',
	date_of_removal           TEXT NOT NULL DEFAULT '',
	extraction_confidence     TEXT NOT NULL DEFAULT '',
	data_issues               TEXT NOT NULL DEFAULT '[]',
	created_at                TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_acm_records_source ON acm_records(source_id);
CREATE INDEX IF NOT EXISTS idx_acm_records_building ON acm_records(building_id);
CREATE INDEX IF NOT EXISTS idx_acm_records_result ON acm_records(result);

CREATE TABLE IF NOT EXISTS extraction_runs (
	id               TEXT PRIMARY KEY,
	source_id        TEXT NOT NULL,
	status           TEXT NOT NULL,
	records_created  INTEGER NOT NULL DEFAULT 0,
	records_rejected INTEGER NOT NULL DEFAULT 0,
	records_failed   INTEGER NOT NULL DEFAULT 0,
	chunks_processed INTEGER NOT NULL DEFAULT 0,
	chunks_total     INTEGER NOT NULL DEFAULT 0,
	confidence_high  INTEGER NOT NULL DEFAULT 0,
	confidence_medium INTEGER NOT NULL DEFAULT 0,
	confidence_low   INTEGER NOT NULL DEFAULT 0,
	extraction_status TEXT NOT NULL DEFAULT '',
	error_message    TEXT NOT NULL DEFAULT '',
	started_at       TEXT NOT NULL,
	duration_ms      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_extraction_runs_source ON extraction_runs(source_id);

CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	source_id   TEXT NOT NULL,
	status      TEXT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	force       INTEGER NOT NULL DEFAULT 0,
	run_id      TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	started_at  TEXT,
	finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_source ON jobs(source_id);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

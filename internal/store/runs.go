package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackzampolin/samp/internal/acm"
)

const runColumns = `id, source_id, status, records_created, records_rejected, records_failed,
	chunks_processed, chunks_total, confidence_high, confidence_medium, confidence_low,
	extraction_status, error_message, started_at, duration_ms`

// SaveRun persists a finished run summary.
func (s *Store) SaveRun(ctx context.Context, run *acm.RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extraction_runs (`+runColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.SourceID, string(run.Status),
		run.RecordsCreated, run.RecordsRejected, run.RecordsFailed,
		run.ChunksProcessed, run.ChunksTotal,
		run.ConfidenceDistribution[acm.ConfidenceHigh],
		run.ConfidenceDistribution[acm.ConfidenceMedium],
		run.ConfidenceDistribution[acm.ConfidenceLow],
		string(run.ExtractionStatus), run.ErrorMessage,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// ListRuns returns runs for a source, newest first. Empty sourceID lists all.
func (s *Store) ListRuns(ctx context.Context, sourceID string) ([]*acm.RunSummary, error) {
	q := `SELECT ` + runColumns + ` FROM extraction_runs`
	var args []any
	if sourceID != "" {
		q += ` WHERE source_id = ?`
		args = append(args, sourceID)
	}
	q += ` ORDER BY started_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*acm.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run for a source.
func (s *Store) LatestRun(ctx context.Context, sourceID string) (*acm.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM extraction_runs WHERE source_id = ?
		 ORDER BY started_at DESC LIMIT 1`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanRun(rows)
}

func scanRun(rows *sql.Rows) (*acm.RunSummary, error) {
	var run acm.RunSummary
	var status, extStatus, started string
	var high, medium, low int
	var durationMS int64

	err := rows.Scan(&run.ID, &run.SourceID, &status,
		&run.RecordsCreated, &run.RecordsRejected, &run.RecordsFailed,
		&run.ChunksProcessed, &run.ChunksTotal,
		&high, &medium, &low,
		&extStatus, &run.ErrorMessage, &started, &durationMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	run.Status = acm.RunStatus(status)
	run.ExtractionStatus = acm.ExtractionStatus(extStatus)
	run.ConfidenceDistribution = map[acm.Confidence]int{
		acm.ConfidenceHigh:   high,
		acm.ConfidenceMedium: medium,
		acm.ConfidenceLow:    low,
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks an extraction job through its lifecycle.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is one queued or finished extraction request.
type Job struct {
	ID         string     `json:"id"`
	SourceID   string     `json:"source_id"`
	Status     JobStatus  `json:"status"`
	Model      string     `json:"model,omitempty"`
	Force      bool       `json:"force,omitempty"`
	RunID      string     `json:"run_id,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CreateJob inserts a queued job.
func (s *Store) CreateJob(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = JobQueued
	}
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, source_id, status, model, force, run_id, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.SourceID, string(job.Status), job.Model, boolToInt(job.Force), job.RunID, job.Error, ts)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	job.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	return nil
}

// MarkJobRunning transitions a job to running and stamps its start time.
func (s *Store) MarkJobRunning(ctx context.Context, id string) error {
	return s.updateJob(ctx, id,
		`UPDATE jobs SET status = ?, started_at = ? WHERE id = ?`,
		string(JobRunning), now(), id)
}

// FinishJob records a job's terminal status.
func (s *Store) FinishJob(ctx context.Context, id string, status JobStatus, runID, errMsg string) error {
	return s.updateJob(ctx, id,
		`UPDATE jobs SET status = ?, run_id = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), runID, errMsg, now(), id)
}

func (s *Store) updateJob(ctx context.Context, id, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const jobColumns = `id, source_id, status, model, force, run_id, error, created_at, started_at, finished_at`

// GetJob loads one job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
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
	return scanJob(rows)
}

// ListJobs returns jobs, newest first, optionally filtered by status or source.
func (s *Store) ListJobs(ctx context.Context, sourceID string, status JobStatus) ([]*Job, error) {
	var conds []string
	var args []any
	if sourceID != "" {
		conds = append(conds, "source_id = ?")
		args = append(args, sourceID)
	}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(status))
	}

	q := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(rows *sql.Rows) (*Job, error) {
	var job Job
	var status, created string
	var force int
	var started, finished sql.NullString

	err := rows.Scan(&job.ID, &job.SourceID, &status, &job.Model, &force,
		&job.RunID, &job.Error, &created, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	job.Status = JobStatus(status)
	job.Force = force != 0
	job.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	if started.Valid {
		t, _ := time.Parse(time.RFC3339Nano, started.String)
		job.StartedAt = &t
	}
	if finished.Valid {
		t, _ := time.Parse(time.RFC3339Nano, finished.String)
		job.FinishedAt = &t
	}
	return &job, nil
}

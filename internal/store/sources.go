package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Source is one ingested document.
type Source struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	SchoolCode string    `json:"school_code,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	Content    string    `json:"content,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateSource inserts a source, assigning an ID when empty.
func (s *Store) CreateSource(ctx context.Context, src *Source) error {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (id, title, school_code, file_path, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.Title, src.SchoolCode, src.FilePath, src.Content, ts, ts)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}
	src.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	src.UpdatedAt = src.CreatedAt
	return nil
}

// UpdateSourceContent replaces a source's content, for re-ingested files.
func (s *Store) UpdateSourceContent(ctx context.Context, id, content string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sources SET content = ?, updated_at = ? WHERE id = ?`, content, now(), id)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSource loads one source with its content.
func (s *Store) GetSource(ctx context.Context, id string) (*Source, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, school_code, file_path, content, created_at, updated_at
		 FROM sources WHERE id = ?`, id)
	return scanSource(row)
}

// FindSourceByPath looks a source up by its ingested file path.
func (s *Store) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, school_code, file_path, content, created_at, updated_at
		 FROM sources WHERE file_path = ?`, path)
	return scanSource(row)
}

// ListSources returns all sources without their content, newest first.
func (s *Store) ListSources(ctx context.Context) ([]*Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, school_code, file_path, created_at, updated_at
		 FROM sources ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var out []*Source
	for rows.Next() {
		var src Source
		var created, updated string
		if err := rows.Scan(&src.ID, &src.Title, &src.SchoolCode, &src.FilePath, &created, &updated); err != nil {
			return nil, err
		}
		src.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		src.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, &src)
	}
	return out, rows.Err()
}

// DeleteSource removes a source and, via cascade, its records.
func (s *Store) DeleteSource(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSource(row *sql.Row) (*Source, error) {
	var src Source
	var created, updated string
	err := row.Scan(&src.ID, &src.Title, &src.SchoolCode, &src.FilePath, &src.Content, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	src.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	src.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &src, nil
}

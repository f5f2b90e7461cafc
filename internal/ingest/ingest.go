// Package ingest loads OCR'd register documents into the store, either from
// explicit file paths or from a watched inbox directory.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jackzampolin/samp/internal/store"
)

// Document text only; PDFs are converted to text upstream.
var allowedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Request contains the parameters for ingesting a document.
type Request struct {
	Path       string // Text file path
	Title      string // School name (optional, derived from filename if empty)
	SchoolCode string // School code (optional, derived from filename if present)
	Logger     *slog.Logger
}

// Result describes an ingested source.
type Result struct {
	SourceID string
	Title    string
	Updated  bool // true when an existing source was re-ingested
}

// Filenames like "4021_northside_primary.txt" carry the school code.
var codePrefixPattern = regexp.MustCompile(`^(\d{3,6})[_\- ]+(.+)$`)

// Ingest reads a document file and creates (or refreshes) its source.
// Re-ingesting the same path updates the stored content rather than
// creating a second source.
func Ingest(ctx context.Context, st *store.Store, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	ext := strings.ToLower(filepath.Ext(req.Path))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("document %s is empty", req.Path)
	}

	abs, err := filepath.Abs(req.Path)
	if err != nil {
		abs = req.Path
	}

	title, code := req.Title, req.SchoolCode
	if title == "" {
		title, code = TitleFromFilename(req.Path)
		if req.SchoolCode != "" {
			code = req.SchoolCode
		}
	}

	existing, err := st.FindSourceByPath(ctx, abs)
	switch {
	case err == nil:
		if err := st.UpdateSourceContent(ctx, existing.ID, string(data)); err != nil {
			return nil, err
		}
		log.Info("source re-ingested", "source_id", existing.ID, "path", abs)
		return &Result{SourceID: existing.ID, Title: existing.Title, Updated: true}, nil
	case errors.Is(err, store.ErrNotFound):
		// fall through to create
	default:
		return nil, err
	}

	src := &store.Source{
		Title:      title,
		SchoolCode: code,
		FilePath:   abs,
		Content:    string(data),
	}
	if err := st.CreateSource(ctx, src); err != nil {
		return nil, err
	}

	log.Info("source ingested", "source_id", src.ID, "title", title, "bytes", len(data))
	return &Result{SourceID: src.ID, Title: title}, nil
}

// TitleFromFilename derives a school name, and code when prefixed, from a
// document filename.
func TitleFromFilename(path string) (title, code string) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if m := codePrefixPattern.FindStringSubmatch(base); m != nil {
		code = m[1]
		base = m[2]
	}
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(base), code
}

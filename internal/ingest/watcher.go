package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/samp/internal/jobs"
	"github.com/jackzampolin/samp/internal/store"
)

// settleDelay is how long a file must be quiet before it is ingested.
// Copies into the inbox arrive as a burst of write events.
const settleDelay = 500 * time.Millisecond

// Watcher ingests documents dropped into an inbox directory.
type Watcher struct {
	dir         string
	st          *store.Store
	runner      *jobs.Runner
	autoExtract bool
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(dir string, st *store.Store, runner *jobs.Runner, autoExtract bool, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:         dir,
		st:          st,
		runner:      runner,
		autoExtract: autoExtract,
		logger:      logger,
		pending:     map[string]*time.Timer{},
	}
}

// Run watches the inbox until the context is cancelled. Files already in
// the inbox at startup are ingested first so documents dropped while the
// server was down are not missed.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	w.sweep(ctx)
	w.logger.Info("watching inbox", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !allowedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watch error", "error", err)
		}
	}
}

// sweep ingests everything already sitting in the inbox.
func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("inbox sweep failed", "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !allowedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, e.Name()))
	}
}

// schedule debounces a file's events, ingesting once writes settle.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.ingest(ctx, path)
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	res, err := Ingest(ctx, w.st, Request{Path: path, Logger: w.logger})
	if err != nil {
		w.logger.Error("inbox ingest failed", "path", path, "error", err)
		return
	}

	if !w.autoExtract || w.runner == nil {
		return
	}
	// Re-ingested files are forced so stale records get replaced.
	if _, err := w.runner.Submit(ctx, res.SourceID, res.Updated); err != nil {
		w.logger.Warn("auto-extract not queued", "source_id", res.SourceID, "error", err)
	}
}

// Package jobs runs extraction jobs asynchronously, one at a time per
// source. Jobs are persisted in the store so history survives restarts.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackzampolin/samp/internal/acm"
	"github.com/jackzampolin/samp/internal/extract"
	"github.com/jackzampolin/samp/internal/providers"
	"github.com/jackzampolin/samp/internal/store"
)

// ErrSourceBusy is returned when a source already has an extraction running
// or queued. Callers surface it as a conflict; the caller retries after the
// current run finishes.
var ErrSourceBusy = errors.New("extraction already in progress for source")

// ErrAlreadyExtracted is returned when a source has records and the job was
// not forced.
var ErrAlreadyExtracted = errors.New("source already has extracted records, use force to re-extract")

// Options configures extraction runs.
type Options struct {
	// Provider names the LLM client in the registry. Empty uses the default.
	Provider string
	// Model overrides the provider's configured model when set.
	Model string
	// ContextWindow sizes the chunker.
	ContextWindow int
}

// Runner owns the background extraction workers.
type Runner struct {
	store    *store.Store
	registry *providers.Registry
	opts     Options
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]context.CancelFunc // keyed by source ID
	byJob  map[string]string             // job ID -> source ID
	wg     sync.WaitGroup
}

func NewRunner(st *store.Store, registry *providers.Registry, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:    st,
		registry: registry,
		opts:     opts,
		logger:   logger,
		active:   map[string]context.CancelFunc{},
		byJob:    map[string]string{},
	}
}

// Submit queues an extraction job for a source and starts it immediately.
// A source can have only one in-flight job; concurrent submissions are
// rejected with ErrSourceBusy rather than queued behind the running one.
func (r *Runner) Submit(ctx context.Context, sourceID string, force bool) (*store.Job, error) {
	return r.SubmitModel(ctx, sourceID, "", force)
}

// SubmitModel is Submit with a per-job model override. An empty model uses
// the runner's configured default.
func (r *Runner) SubmitModel(ctx context.Context, sourceID, model string, force bool) (*store.Job, error) {
	// Background jobs outlive the submitting request.
	return r.submit(ctx, context.Background(), sourceID, model, force)
}

// submit validates the request and starts the run. The run context derives
// from base, so synchronous callers can pass their own context and cancel
// the model calls directly.
func (r *Runner) submit(ctx, base context.Context, sourceID, model string, force bool) (*store.Job, error) {
	src, err := r.store.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	if !force {
		n, err := r.store.CountRecordsBySource(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, ErrAlreadyExtracted
		}
	}

	r.mu.Lock()
	if _, busy := r.active[sourceID]; busy {
		r.mu.Unlock()
		return nil, ErrSourceBusy
	}

	if model == "" {
		model = r.opts.Model
	}
	job := &store.Job{SourceID: sourceID, Model: model, Force: force}
	if err := r.store.CreateJob(ctx, job); err != nil {
		r.mu.Unlock()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(base)
	r.active[sourceID] = cancel
	r.byJob[job.ID] = sourceID
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(runCtx, job, src)
	return job, nil
}

// Cancel stops a running job. Returns false when the job is not in flight.
func (r *Runner) Cancel(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sourceID, ok := r.byJob[jobID]
	if !ok {
		return false
	}
	if cancel, ok := r.active[sourceID]; ok {
		cancel()
		return true
	}
	return false
}

// Busy reports whether a source has an in-flight job.
func (r *Runner) Busy(sourceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[sourceID]
	return ok
}

// Wait blocks until all in-flight jobs finish. Used on shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, job *store.Job, src *store.Source) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		if cancel, ok := r.active[src.ID]; ok {
			cancel()
			delete(r.active, src.ID)
		}
		delete(r.byJob, job.ID)
		r.mu.Unlock()
	}()

	log := r.logger.With("job_id", job.ID, "source_id", src.ID)

	// Store updates use a background context so a cancelled run can still
	// record its terminal state.
	bg := context.Background()

	if err := r.store.MarkJobRunning(bg, job.ID); err != nil {
		log.Error("failed to mark job running", "error", err)
		return
	}

	client, err := r.registry.GetLLM(r.opts.Provider)
	if err != nil {
		log.Error("no llm provider available", "error", err)
		_ = r.store.FinishJob(bg, job.ID, store.JobFailed, "", err.Error())
		return
	}

	pipeline := extract.NewPipeline(r.store, client, job.Model, r.opts.ContextWindow, r.logger)
	summary, runErr := pipeline.Run(ctx, extract.Input{
		SourceID:   src.ID,
		SchoolName: src.Title,
		SchoolCode: src.SchoolCode,
		Content:    src.Content,
	})

	if summary != nil {
		if err := r.store.SaveRun(bg, summary); err != nil {
			log.Error("failed to save run summary", "error", err)
		}
	}

	switch {
	case summary != nil && summary.Status == acm.RunCancelled:
		_ = r.store.FinishJob(bg, job.ID, store.JobCancelled, summary.ID, "cancelled")
		log.Info("job cancelled")
	case runErr != nil:
		runID := ""
		if summary != nil {
			runID = summary.ID
		}
		_ = r.store.FinishJob(bg, job.ID, store.JobFailed, runID, runErr.Error())
		log.Warn("job failed", "error", runErr)
	default:
		_ = r.store.FinishJob(bg, job.ID, store.JobCompleted, summary.ID, "")
		log.Info("job completed",
			"records_created", summary.RecordsCreated,
			"records_rejected", summary.RecordsRejected)
	}
}

// RunSync executes one extraction in the calling goroutine, for the CLI
// one-shot path. It respects the same per-source exclusivity as Submit.
func (r *Runner) RunSync(ctx context.Context, sourceID string, force bool) (*acm.RunSummary, error) {
	job, err := r.submit(ctx, ctx, sourceID, "", force)
	if err != nil {
		return nil, err
	}
	r.wg.Wait()

	// Read terminal state even when ctx was the cancellation trigger.
	ctx = context.WithoutCancel(ctx)
	done, err := r.store.GetJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if done.RunID == "" {
		if done.Error != "" {
			return nil, errors.New(done.Error)
		}
		return nil, fmt.Errorf("job %s finished without a run", job.ID)
	}

	runs, err := r.store.ListRuns(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		if run.ID == done.RunID {
			if done.Status == store.JobFailed {
				return run, errors.New(done.Error)
			}
			return run, nil
		}
	}
	return nil, fmt.Errorf("run %s not found", done.RunID)
}

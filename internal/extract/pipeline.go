package extract

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/samp/internal/acm"
	"github.com/jackzampolin/samp/internal/prompts/register"
	"github.com/jackzampolin/samp/internal/providers"
)

// RecordStore is the persistence surface the pipeline needs. Re-running a
// source replaces its records wholesale, so delete-by-source comes first.
type RecordStore interface {
	DeleteRecordsBySource(ctx context.Context, sourceID string) (int, error)
	SaveRecord(ctx context.Context, rec *acm.Record) error
}

// Input describes one document to extract.
type Input struct {
	SourceID   string
	SchoolName string
	SchoolCode string
	Content    string
}

// Pipeline drives a full extraction run: preprocess, chunk, extract each
// chunk with retries, validate, deduplicate, persist.
type Pipeline struct {
	store     RecordStore
	invoker   *Invoker
	chunker   *Chunker
	validator *Validator
	logger    *slog.Logger
}

func NewPipeline(store RecordStore, client providers.LLMClient, model string, contextWindow int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     store,
		invoker:   NewInvoker(client, model, logger),
		chunker:   NewChunker(contextWindow),
		validator: NewValidator(),
		logger:    logger,
	}
}

// Invoker exposes the chunk invoker, mainly so callers can install a test
// sleeper.
func (p *Pipeline) Invoker() *Invoker { return p.invoker }

// Run executes one extraction run end to end. A chunk that exhausts its
// retries fails the run, but records already extracted from earlier chunks
// are still validated and persisted so partial work is not thrown away.
// Cancellation stops between chunks and persists nothing.
func (p *Pipeline) Run(ctx context.Context, in Input) (*acm.RunSummary, error) {
	summary := acm.NewRunSummary(in.SourceID)
	summary.ID = uuid.New().String()

	log := p.logger.With("source_id", in.SourceID, "run_id", summary.ID)

	if in.Content == "" {
		summary.Status = acm.RunFailed
		summary.ErrorMessage = "source has no content to extract"
		summary.Duration = time.Since(summary.StartedAt)
		return summary, errors.New(summary.ErrorMessage)
	}

	content, stats := Preprocess(in.Content)
	log.Info("content preprocessed",
		"buildings", stats.BuildingsFound,
		"rooms", stats.RoomsFound,
		"acm_indicators", stats.ACMIndicators)

	trk := NewTracker()
	trk.SchoolName = in.SchoolName
	trk.SchoolCode = in.SchoolCode
	if trk.SchoolName == "" {
		trk.SeekSchool(content)
	}

	chunks := p.chunker.Chunk(content)
	summary.ChunksTotal = len(chunks)
	log.Info("content chunked", "chunks", len(chunks), "tokens", EstimateTokens(content))

	school := register.SchoolInfo{SchoolName: trk.SchoolName, SchoolCode: trk.SchoolCode}

	var items []register.Item
	var runErr error

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			summary.Status = acm.RunCancelled
			summary.Duration = time.Since(summary.StartedAt)
			log.Info("run cancelled", "chunks_processed", summary.ChunksProcessed)
			return summary, err
		}

		result, err := p.invoker.ExtractChunk(ctx, school, chunk, len(chunks), trk.Render())
		if err != nil {
			if ctx.Err() != nil {
				summary.Status = acm.RunCancelled
				summary.Duration = time.Since(summary.StartedAt)
				log.Info("run cancelled mid-chunk", "chunks_processed", summary.ChunksProcessed)
				return summary, ctx.Err()
			}
			runErr = err
			log.Error("chunk extraction failed, persisting earlier chunks",
				"chunk", chunk.Index, "error", err)
			break
		}

		// Fill page numbers the model omitted from chunk metadata.
		for i := range result.Records {
			if result.Records[i].PageNumber == nil && chunk.PageNumber > 0 {
				page := chunk.PageNumber
				result.Records[i].PageNumber = &page
			}
		}

		items = append(items, result.Records...)
		summary.ChunksProcessed++

		trk.Observe(chunk.Content)
		trk.Advance(result.Records)
	}

	valid, rejected := p.validator.Validate(items, trk)
	summary.RecordsRejected = rejected

	deduped, merged := Deduplicate(valid, trk.SchoolCode)
	if merged > 0 {
		log.Info("duplicate records merged", "merged", merged)
	}

	if err := p.persist(ctx, in, trk, deduped, summary, log); err != nil && runErr == nil {
		runErr = err
	}

	summary.Duration = time.Since(summary.StartedAt)

	switch {
	case runErr != nil:
		summary.Status = acm.RunFailed
		summary.ErrorMessage = runErr.Error()
	default:
		summary.Status = acm.RunCompleted
	}

	if summary.RecordsCreated > 0 {
		summary.ExtractionStatus = acm.StatusValid
	} else if runErr == nil {
		summary.ExtractionStatus = acm.StatusNoACMData
	}

	log.Info("run finished",
		"status", summary.Status,
		"records_created", summary.RecordsCreated,
		"records_rejected", summary.RecordsRejected,
		"records_failed", summary.RecordsFailed,
		"chunks", summary.ChunksProcessed,
		"duration", summary.Duration)

	return summary, runErr
}

func (p *Pipeline) persist(ctx context.Context, in Input, trk *Tracker, items []register.Item, summary *acm.RunSummary, log *slog.Logger) error {
	deleted, err := p.store.DeleteRecordsBySource(ctx, in.SourceID)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Info("replaced existing records", "deleted", deleted)
	}

	var firstErr error
	for _, item := range items {
		rec := toRecord(in.SourceID, trk, item)
		if err := p.store.SaveRecord(ctx, rec); err != nil {
			summary.RecordsFailed++
			if firstErr == nil {
				firstErr = err
			}
			log.Error("failed to save record", "building_id", rec.BuildingID, "error", err)
			continue
		}
		summary.RecordsCreated++
		summary.CountConfidence(rec.ExtractionConfidence)
	}
	return firstErr
}

func toRecord(sourceID string, trk *Tracker, item register.Item) *acm.Record {
	schoolName := trk.SchoolName
	if schoolName == "" {
		schoolName = "Unknown School"
	}

	rec := &acm.Record{
		ID:                   uuid.New().String(),
		SourceID:             sourceID,
		SchoolName:           schoolName,
		SchoolCode:           trk.SchoolCode,
		BuildingID:           item.BuildingID,
		BuildingName:         deref(item.BuildingName),
		BuildingConstruction: deref(item.BuildingConstruction),
		RoomID:               deref(item.RoomID),
		RoomName:             deref(item.RoomName),
		AreaType:             deref(item.AreaType),
		Product:              item.Product,
		MaterialDescription:  item.MaterialDescription,
		Extent:               deref(item.Extent),
		Location:             deref(item.Location),
		Friable:              deref(item.Friable),
		MaterialCondition:    deref(item.MaterialCondition),
		RiskStatus:           deref(item.RiskStatus),
		Result:               item.Result,

		DisturbancePotential:     deref(item.DisturbancePotential),
		SampleNo:                 deref(item.SampleNo),
		SampleResult:             deref(item.SampleResult),
		IdentifyingCompany:       deref(item.IdentifyingCompany),
		Quantity:                 deref(item.Quantity),
		ACMLabelled:              item.ACMLabelled,
		ACMLabelDetails:          deref(item.ACMLabelDetails),
		HygienistRecommendations: deref(item.HygienistRecommendations),
		PSBSuppliedACMID:         deref(item.PSBSuppliedACMID),
		RemovalStatus:            deref(item.RemovalStatus),
		DateOfRemoval:            deref(item.DateOfRemoval),

		ExtractionConfidence: item.ExtractionConfidence,
		DataIssues:           item.DataIssues,
	}
	if item.BuildingYear != nil {
		rec.BuildingYear = *item.BuildingYear
	}
	if item.RoomArea != nil {
		rec.RoomArea = *item.RoomArea
	}
	if item.PageNumber != nil {
		rec.PageNumber = *item.PageNumber
	}
	if rec.AreaType == "" {
		rec.AreaType = defaultAreaType
	}
	return rec
}

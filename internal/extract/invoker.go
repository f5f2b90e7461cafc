package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/samp/internal/prompts/register"
	"github.com/jackzampolin/samp/internal/providers"
)

const (
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries = 3

	baseTemperature  = 0.3
	retryTemperature = 0.1
)

// RetryDelays is the backoff between attempts.
var RetryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Sleeper abstracts backoff waits so tests run without wall-clock delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ChunkFailure wraps the terminal error for a chunk, preserving the raw
// model response from the last attempt for diagnostics.
type ChunkFailure struct {
	ChunkIndex  int
	Attempts    int
	RawResponse string
	Err         error
}

func (f *ChunkFailure) Error() string {
	return fmt.Sprintf("chunk %d failed after %d attempts: %v", f.ChunkIndex, f.Attempts, f.Err)
}

func (f *ChunkFailure) Unwrap() error { return f.Err }

// Invoker runs the model against one chunk at a time with retry on both
// transport failures and malformed responses.
type Invoker struct {
	client  providers.LLMClient
	model   string
	sleeper Sleeper
	logger  *slog.Logger
}

func NewInvoker(client providers.LLMClient, model string, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{client: client, model: model, sleeper: realSleeper{}, logger: logger}
}

// WithSleeper replaces the backoff sleeper. Test hook.
func (inv *Invoker) WithSleeper(s Sleeper) *Invoker {
	inv.sleeper = s
	return inv
}

// ExtractChunk sends one chunk to the model and returns the parsed result.
// A malformed or schema-violating response is retried the same way a
// transport error is, with backoff and a lower temperature; an empty
// records list is a valid success. Context cancellation aborts immediately
// between attempts.
func (inv *Invoker) ExtractChunk(ctx context.Context, school register.SchoolInfo, chunk Chunk, totalChunks int, contextBlock string) (*register.Result, error) {
	info := register.ChunkInfo{
		Index:     chunk.Index,
		Total:     totalChunks,
		FirstPage: chunk.PageNumber,
		LastPage:  chunk.PageNumber,
	}
	userPrompt := register.BuildUserPrompt(school, info, contextBlock, chunk.Content)

	rf := &providers.ResponseFormat{Name: "acm_register", JSONSchema: register.ExtractionSchema}

	var lastErr error
	var lastRaw string

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			delay := RetryDelays[len(RetryDelays)-1]
			if attempt-1 < len(RetryDelays) {
				delay = RetryDelays[attempt-1]
			}
			inv.logger.Warn("retrying chunk extraction",
				"chunk", chunk.Index,
				"attempt", attempt+1,
				"delay", delay,
				"error", lastErr)
			if err := inv.sleeper.Sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		temp := baseTemperature
		if attempt > 0 {
			temp = retryTemperature
		}

		resp, err := inv.client.Chat(ctx, &providers.ChatRequest{
			Messages: []providers.Message{
				{Role: "system", Content: register.SystemPrompt},
				{Role: "user", Content: userPrompt},
			},
			Model:          inv.model,
			Temperature:    providers.Temp(temp),
			ResponseFormat: rf,
			RequestID:      fmt.Sprintf("chunk-%d-attempt-%d", chunk.Index, attempt+1),
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			lastRaw = providers.RawResponse(err)
			continue
		}

		var result register.Result
		if err := providers.DecodeStructured(rf, []byte(resp.Content), &result); err != nil {
			lastErr = err
			lastRaw = resp.Content
			continue
		}

		inv.logger.Debug("chunk extracted",
			"chunk", chunk.Index,
			"records", len(result.Records),
			"attempt", attempt+1,
			"tokens", resp.TotalTokens)
		return &result, nil
	}

	return nil, &ChunkFailure{
		ChunkIndex:  chunk.Index,
		Attempts:    MaxRetries + 1,
		RawResponse: lastRaw,
		Err:         lastErr,
	}
}

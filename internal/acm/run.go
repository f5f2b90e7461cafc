package acm

import "time"

// RunStatus is the terminal status of an extraction run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// RunSummary is the aggregate result of one document extraction run.
// It is finalized exactly once at pipeline end and immutable thereafter.
type RunSummary struct {
	ID       string    `json:"id,omitempty"`
	SourceID string    `json:"source_id"`
	Status   RunStatus `json:"status"`

	RecordsCreated  int `json:"records_created"`
	RecordsRejected int `json:"records_rejected"`
	RecordsFailed   int `json:"records_failed"`
	ChunksProcessed int `json:"chunks_processed"`
	ChunksTotal     int `json:"chunks_total"`

	// ConfidenceDistribution counts persisted records per confidence level.
	ConfidenceDistribution map[Confidence]int `json:"confidence_distribution"`

	// ExtractionStatus distinguishes "register extracted" from "document
	// legitimately contained no ACM data".
	ExtractionStatus ExtractionStatus `json:"extraction_status"`

	ErrorMessage string        `json:"error_message,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// NewRunSummary creates a run summary in its initial state.
func NewRunSummary(sourceID string) *RunSummary {
	return &RunSummary{
		SourceID:               sourceID,
		ConfidenceDistribution: map[Confidence]int{ConfidenceHigh: 0, ConfidenceMedium: 0, ConfidenceLow: 0},
		StartedAt:              time.Now().UTC(),
	}
}

// CountConfidence tallies one persisted record's confidence level.
func (s *RunSummary) CountConfidence(c Confidence) {
	if s.ConfidenceDistribution == nil {
		s.ConfidenceDistribution = map[Confidence]int{}
	}
	s.ConfidenceDistribution[c]++
}

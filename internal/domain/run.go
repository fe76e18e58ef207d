package domain

import (
	"fmt"
	"net/http"
	"time"
)

// OutcomeStatus tells apart the two failure policies: a skipped channel
// degrades its own output only, a fatal error aborts the whole run.
type OutcomeStatus string

const (
	OutcomeOK      OutcomeStatus = "ok"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// SourceOutcome is the per-channel result of an extraction batch.
type SourceOutcome struct {
	Source    string
	Status    OutcomeStatus
	Reason    string
	ObjectKey string
	Videos    int
}

// ExtractStats holds statistics about one extraction run.
type ExtractStats struct {
	Channels  int
	Extracted int
	Skipped   int
	Published int
	Outcomes  []SourceOutcome
	Duration  time.Duration
}

// RunStatus is the stage completion signal, HTTP-style.
type RunStatus struct {
	Code    int    `json:"statusCode"`
	Message string `json:"body"`
}

// StatusFor converts an extraction result into the stage's completion
// signal: 200 when the batch ran to the end, 500 otherwise. Skipped
// channels do not fail the batch.
func StatusFor(stats *ExtractStats, err error) RunStatus {
	if err != nil {
		return RunStatus{
			Code:    http.StatusInternalServerError,
			Message: fmt.Sprintf("Error: %v", err),
		}
	}
	return RunStatus{
		Code: http.StatusOK,
		Message: fmt.Sprintf("channel data extraction completed: %d extracted, %d skipped",
			stats.Extracted, stats.Skipped),
	}
}

// RunRecord is one row of the run ledger.
type RunRecord struct {
	ID         int64     `db:"id"`
	SourceID   string    `db:"source_id"`
	Stage      string    `db:"stage"`
	ObjectKey  string    `db:"object_key"`
	VideoCount int       `db:"video_count"`
	Status     string    `db:"status"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
}

// SourceState accumulates ledger totals per channel.
type SourceState struct {
	SourceID    string    `db:"source_id"`
	LastRunAt   time.Time `db:"last_run_at"`
	TotalRuns   int64     `db:"total_runs"`
	TotalVideos int64     `db:"total_videos"`
}

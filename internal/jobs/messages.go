// Package jobs provides the NATS JetStream queue for long-running fetch and
// comparison work, plus the worker that executes it.
package jobs

import "time"

// Type identifies the kind of work a job performs.
type Type string

const (
	// TypeFetchMarketCaps fetches and stores market caps for the configured
	// ticker universe, optionally as of a past date.
	TypeFetchMarketCaps Type = "fetch-market-caps"
	// TypeComparison fetches both endpoint dates and generates a comparison
	// report.
	TypeComparison Type = "comparison"
)

// State is the lifecycle state of a job.
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Request is published to the submit stream when a job is accepted.
type Request struct {
	JobID       string     `json:"job_id"`
	Type        Type       `json:"job_type"`
	Parameters  Parameters `json:"parameters"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// Parameters carries the per-type job arguments. Dates use the "2006-01-02"
// form. A fetch job with an empty Date fetches current data.
type Parameters struct {
	Date     string `json:"date,omitempty"`
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

// Status is a lifecycle update published on jobs.<id>.status.
type Status struct {
	JobID     string    `json:"job_id"`
	State     State     `json:"status"`
	Step      int       `json:"current_step,omitempty"`
	Message   string    `json:"current_step_message,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Progress is a fine-grained update published on jobs.<id>.progress. Step
// transitions carry Step and Message only; per-ticker updates also carry
// Current, Total and Ticker.
type Progress struct {
	JobID     string    `json:"job_id"`
	Step      int       `json:"step"`
	Message   string    `json:"message"`
	Current   int       `json:"current,omitempty"`
	Total     int       `json:"total,omitempty"`
	Ticker    string    `json:"ticker,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the terminal message published on jobs.<id>.result.
type Result struct {
	JobID       string    `json:"job_id"`
	State       State     `json:"status"`
	OutputFiles []string  `json:"output_files"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

func queuedStatus(jobID string) Status {
	return Status{JobID: jobID, State: StateQueued, UpdatedAt: time.Now().UTC()}
}

func processingStatus(jobID string, step int, message string) Status {
	return Status{
		JobID:     jobID,
		State:     StateProcessing,
		Step:      step,
		Message:   message,
		UpdatedAt: time.Now().UTC(),
	}
}

func completedStatus(jobID string) Status {
	return Status{JobID: jobID, State: StateCompleted, UpdatedAt: time.Now().UTC()}
}

func failedStatus(jobID string, err error) Status {
	return Status{
		JobID:     jobID,
		State:     StateFailed,
		Error:     err.Error(),
		UpdatedAt: time.Now().UTC(),
	}
}

func successResult(jobID string, outputFiles []string) Result {
	if outputFiles == nil {
		outputFiles = []string{}
	}
	return Result{
		JobID:       jobID,
		State:       StateCompleted,
		OutputFiles: outputFiles,
		CompletedAt: time.Now().UTC(),
	}
}

func failedResult(jobID string, err error) Result {
	return Result{
		JobID:       jobID,
		State:       StateFailed,
		OutputFiles: []string{},
		Error:       err.Error(),
		CompletedAt: time.Now().UTC(),
	}
}

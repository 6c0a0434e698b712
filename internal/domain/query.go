package domain

import "time"

// QueryStatus is the lifecycle state of a query's most recent execution.
type QueryStatus string

const (
	QueryStatusIdle    QueryStatus = "idle"
	QueryStatusRunning QueryStatus = "running"
	QueryStatusSuccess QueryStatus = "success"
	QueryStatusError   QueryStatus = "error"
)

// ExecutingPlaceholder is shown as the result while a query runs.
const ExecutingPlaceholder = "Executing..."

// ExecutionState tracks one query id's last execution.
// It is kept apart from the query text so edits and results evolve independently.
type ExecutionState struct {
	Status     QueryStatus `json:"status"`
	Result     string      `json:"result"`
	RunID      string      `json:"runId,omitempty"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
}

// Start moves the state to running. Any previous status is overwritten;
// terminal states are not sticky.
func (s *ExecutionState) Start(runID string, now time.Time) {
	s.Status = QueryStatusRunning
	s.Result = ExecutingPlaceholder
	s.RunID = runID
	s.StartedAt = now
	s.FinishedAt = time.Time{}
}

// Finish records the outcome of a run.
func (s *ExecutionState) Finish(c Completion, now time.Time) {
	if c.Success {
		s.Status = QueryStatusSuccess
	} else {
		s.Status = QueryStatusError
	}
	s.Result = c.Output
	s.FinishedAt = now
}

// Completion is the single result delivered for one execution.
type Completion struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

// Failed builds an unsuccessful Completion.
func Failed(msg string) Completion {
	return Completion{Success: false, Output: msg}
}

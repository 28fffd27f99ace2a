package models

import "time"

// Push event type strings delivered to subscribers
const (
	PushEventProgress  = "progress"
	PushEventCompleted = "completed"
	PushEventError     = "error"
)

// JobEvent is the payload fanned out to live subscribers and bridged to the
// webhook layer on terminal outcomes. For a single job, events are published
// in non-decreasing progress order and the terminal event is always last.
type JobEvent struct {
	Type            string    `json:"type"` // "progress", "completed", "error"
	JobID           string    `json:"jobId"`
	Status          JobStatus `json:"status"`
	Progress        int       `json:"progress"`
	ResultRef       string    `json:"resultRef,omitempty"`
	DurationSeconds int       `json:"duration,omitempty"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// IsTerminal returns true for completed and error events
func (e JobEvent) IsTerminal() bool {
	return e.Type == PushEventCompleted || e.Type == PushEventError
}

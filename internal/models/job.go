// -----------------------------------------------------------------------
// Job - Canonical job record and state machine vocabulary
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of a job.
// Transitions are monotonic: queued → generating → {completed | failed}.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusGenerating JobStatus = "generating"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal returns true for completed and failed; no further mutation of
// status, progress, error, or result is permitted once terminal.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether the state machine permits moving from s to next
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return next == JobStatusGenerating || next == JobStatusCompleted || next == JobStatusFailed
	case JobStatusGenerating:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// JobKind classifies the requested artifact
type JobKind string

const (
	JobKindVideo     JobKind = "video"
	JobKindAnimation JobKind = "animation"
	JobKindAudio     JobKind = "audio"
)

// Valid returns true for a known job kind
func (k JobKind) Valid() bool {
	switch k {
	case JobKindVideo, JobKindAnimation, JobKindAudio:
		return true
	}
	return false
}

// Job is the canonical job record. It is owned exclusively by the lifecycle
// manager; every other component reads it through the manager's accessors or
// receives it by value as an event payload.
type Job struct {
	ID      string  `json:"id" badgerhold:"key"`
	OwnerID string  `json:"owner_id" badgerholdIndex:"OwnerID"`
	Title   string  `json:"title"`
	Script  string  `json:"script"`
	Kind    JobKind `json:"kind"`

	Status   JobStatus `json:"status" badgerholdIndex:"Status"`
	Progress int       `json:"progress"` // 0-100, monotonic non-decreasing

	Error           string `json:"error,omitempty"`      // set iff status=failed
	ResultRef       string `json:"result_ref,omitempty"` // set iff status=completed
	DurationSeconds int    `json:"duration_seconds,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJob creates a job record in the queued state
func NewJob(id, ownerID, script, title string, kind JobKind) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		OwnerID:   ownerID,
		Script:    script,
		Title:     title,
		Kind:      kind,
		Status:    JobStatusQueued,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal returns true if the job is in a terminal state
func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Validate checks record-level invariants
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if j.OwnerID == "" {
		return fmt.Errorf("owner ID is required")
	}
	if j.Script == "" {
		return fmt.Errorf("script is required")
	}
	if !j.Kind.Valid() {
		return fmt.Errorf("unknown job kind: %s", j.Kind)
	}
	if j.Progress < 0 || j.Progress > 100 {
		return fmt.Errorf("progress out of range: %d", j.Progress)
	}
	if j.Status == JobStatusFailed && j.Error == "" {
		return fmt.Errorf("failed job requires an error message")
	}
	if j.Status != JobStatusFailed && j.Error != "" {
		return fmt.Errorf("error message is only valid on failed jobs")
	}
	if j.Status == JobStatusCompleted && j.ResultRef == "" {
		return fmt.Errorf("completed job requires a result reference")
	}
	if j.Status != JobStatusCompleted && j.ResultRef != "" {
		return fmt.Errorf("result reference is only valid on completed jobs")
	}
	return nil
}

// JobView is the caller-facing projection of a job record
type JobView struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"`
	Ready     bool      `json:"ready"`
	ResultRef string    `json:"resultRef,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// View projects the job into its caller-facing shape
func (j *Job) View() JobView {
	return JobView{
		JobID:     j.ID,
		Status:    j.Status,
		Progress:  j.Progress,
		Ready:     j.Status == JobStatusCompleted,
		ResultRef: j.ResultRef,
		Error:     j.Error,
	}
}

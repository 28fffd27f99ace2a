package interfaces

import (
	"errors"
	"fmt"
)

// Admission errors are surfaced synchronously to the submitter; no job is
// created and no pipeline runs when one of these is returned.
var (
	// ErrInsufficientCredit signals that credit reservation failed
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrInvalidInput signals that the submit request failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrJobNotFound is returned by status lookups for unknown job identifiers
	ErrJobNotFound = errors.New("job not found")
)

// PhaseError wraps a pipeline phase failure with the phase that produced it.
// Phase errors are contained inside the executor: they terminate the job but
// never propagate to the submitter, which has already disconnected.
type PhaseError struct {
	Phase string // "interpretation", "synthesis", "rendering", "storage"
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// NewPhaseError wraps an error with its originating pipeline phase
func NewPhaseError(phase string, err error) *PhaseError {
	return &PhaseError{Phase: phase, Err: err}
}

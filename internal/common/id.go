package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique job identifier with the "job_" prefix.
// Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewResultRef generates a unique artifact reference with the "vid_" prefix.
// Format: vid_<uuid>
func NewResultRef() string {
	return "vid_" + uuid.New().String()
}

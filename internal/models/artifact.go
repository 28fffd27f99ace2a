package models

import "time"

// Artifact is the metadata record for a persisted video/audio artifact.
// The bytes live on the filesystem at Path; the ResultRef is the opaque
// identifier handed back to callers and webhook receivers.
type Artifact struct {
	ResultRef       string    `json:"result_ref" badgerhold:"key"`
	JobID           string    `json:"job_id" badgerholdIndex:"JobID"`
	OwnerID         string    `json:"owner_id"`
	Path            string    `json:"path"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

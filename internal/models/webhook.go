package models

import "time"

// WebhookPayload is the signed terminal notification body. It is derived
// from the job record at terminal transition time and never stored.
// Receivers must recompute the signature over the exact received bytes.
type WebhookPayload struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	ResultRef string    `json:"resultRef,omitempty"`
	Duration  int       `json:"duration,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

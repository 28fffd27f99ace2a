package models

// SubmitRequest is the caller-facing submission shape.
// Validation tags back the InvalidInput admission error.
type SubmitRequest struct {
	OwnerID string        `json:"ownerId" validate:"required,max=128"`
	Script  string        `json:"script" validate:"required,min=1,max=50000"`
	Kind    JobKind       `json:"kind" validate:"required,oneof=video animation audio"`
	Options SubmitOptions `json:"options"`
}

// SubmitOptions carries optional per-job settings
type SubmitOptions struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

// SubmitResponse is returned synchronously once admission succeeds.
// The background pipeline has not run yet when the caller sees this.
type SubmitResponse struct {
	JobID            string    `json:"jobId"`
	Status           JobStatus `json:"status"`
	Title            string    `json:"title"`
	CreditsDeducted  int       `json:"creditsDeducted"`
	RemainingCredits int       `json:"remainingCredits"`
}

package interfaces

import (
	"context"

	"github.com/ternarybob/narrato/internal/models"
)

// ScriptInterpreter produces narration text and an animation plan from a raw
// source code snippet. For the audio kind an enhanced narration alone is
// produced and the plan is nil.
type ScriptInterpreter interface {
	Interpret(ctx context.Context, script string, kind models.JobKind) (*models.ScriptPlan, error)
}

// SpeechSynthesizer converts narration text to an audio byte buffer
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// VideoRenderer combines the animation plan (or raw script) and audio buffer
// into a video byte buffer
type VideoRenderer interface {
	Render(ctx context.Context, plan *models.ScriptPlan, script string, audio []byte) ([]byte, error)
}

// ArtifactStore persists the final artifact and returns an opaque result
// reference. No video is considered available unless persistence succeeds.
type ArtifactStore interface {
	Persist(ctx context.Context, jobID, ownerID string, video []byte, durationSeconds int) (string, error)
	GetArtifact(ctx context.Context, resultRef string) (*models.Artifact, error)
}

// JobLifecycle is the single-writer interface over the canonical job record.
// All status, progress, and terminal mutations flow through it.
type JobLifecycle interface {
	MarkGenerating(ctx context.Context, jobID string) error
	UpdateProgress(ctx context.Context, jobID string, progress int) error
	Complete(ctx context.Context, jobID, resultRef string, durationSeconds int) error
	Fail(ctx context.Context, jobID, errorMsg string) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
}

package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
)

// Progress checkpoints published as each phase begins
const (
	progressInterpret  = 10
	progressSynthesize = 35
	progressRender     = 65
	progressPersist    = 90
)

// Executor runs the four-phase generation pipeline for a single job:
// interpret the script, synthesize narration audio, render the video,
// persist the artifact. Any phase error or panic fails the job; credits
// already spent on the job are not returned.
type Executor struct {
	lifecycle    interfaces.JobLifecycle
	interpreter  interfaces.ScriptInterpreter
	synthesizer  interfaces.SpeechSynthesizer
	renderer     interfaces.VideoRenderer
	artifacts    interfaces.ArtifactStore
	audioBitrate int
	logger       arbor.ILogger
}

// NewExecutor creates a pipeline executor
func NewExecutor(
	lifecycle interfaces.JobLifecycle,
	interpreter interfaces.ScriptInterpreter,
	synthesizer interfaces.SpeechSynthesizer,
	renderer interfaces.VideoRenderer,
	artifacts interfaces.ArtifactStore,
	config *common.PipelineConfig,
	logger arbor.ILogger,
) *Executor {
	return &Executor{
		lifecycle:    lifecycle,
		interpreter:  interpreter,
		synthesizer:  synthesizer,
		renderer:     renderer,
		artifacts:    artifacts,
		audioBitrate: config.AudioBitrate,
		logger:       logger,
	}
}

// Execute runs the pipeline for a job. It never returns phase errors to the
// caller; outcomes are recorded on the job itself.
func (e *Executor) Execute(ctx context.Context, job *models.Job) {
	log := e.logger.WithCorrelationId(job.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("job_id", job.ID).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", common.GetStackTrace()).
				Msg("Pipeline panicked")
			e.fail(ctx, job.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := e.lifecycle.MarkGenerating(ctx, job.ID); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to start generation")
		return
	}

	resultRef, durationSeconds, err := e.run(ctx, log, job)
	if err != nil {
		log.Warn().
			Err(err).
			Str("job_id", job.ID).
			Msg("Pipeline failed")
		e.fail(ctx, job.ID, err.Error())
		return
	}

	if err := e.lifecycle.Complete(ctx, job.ID, resultRef, durationSeconds); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to record completion")
	}
}

func (e *Executor) run(ctx context.Context, log arbor.ILogger, job *models.Job) (string, int, error) {
	e.progress(ctx, job.ID, progressInterpret)

	plan, err := e.interpreter.Interpret(ctx, job.Script, job.Kind)
	if err != nil {
		return "", 0, interfaces.NewPhaseError("interpretation", err)
	}
	log.Debug().
		Str("job_id", job.ID).
		Int("scenes", len(plan.Scenes)).
		Msg("Script interpreted")

	e.progress(ctx, job.ID, progressSynthesize)

	audio, err := e.synthesizer.Synthesize(ctx, plan.Narration)
	if err != nil {
		return "", 0, interfaces.NewPhaseError("synthesis", err)
	}
	durationSeconds := AudioDuration(len(audio), e.audioBitrate)
	log.Debug().
		Str("job_id", job.ID).
		Int("audio_bytes", len(audio)).
		Int("duration_seconds", durationSeconds).
		Msg("Narration synthesized")

	// Audio-only jobs skip rendering and ship the narration track itself
	artifact := audio
	if job.Kind != models.JobKindAudio {
		e.progress(ctx, job.ID, progressRender)

		video, err := e.renderer.Render(ctx, plan, job.Script, audio)
		if err != nil {
			return "", 0, interfaces.NewPhaseError("rendering", err)
		}
		artifact = video
	}

	e.progress(ctx, job.ID, progressPersist)

	resultRef, err := e.artifacts.Persist(ctx, job.ID, job.OwnerID, artifact, durationSeconds)
	if err != nil {
		return "", 0, interfaces.NewPhaseError("storage", err)
	}

	return resultRef, durationSeconds, nil
}

func (e *Executor) progress(ctx context.Context, jobID string, progress int) {
	if err := e.lifecycle.UpdateProgress(ctx, jobID, progress); err != nil {
		e.logger.Warn().
			Err(err).
			Str("job_id", jobID).
			Int("progress", progress).
			Msg("Failed to update progress")
	}
}

func (e *Executor) fail(ctx context.Context, jobID string, errorMsg string) {
	if err := e.lifecycle.Fail(ctx, jobID, errorMsg); err != nil {
		e.logger.Error().
			Err(err).
			Str("job_id", jobID).
			Msg("Failed to record job failure")
	}
}

// AudioDuration derives playback seconds from encoded audio size at a
// constant bitrate, rounded to the nearest second.
func AudioDuration(audioBytes, bitrate int) int {
	if bitrate <= 0 {
		return 0
	}
	return int(math.Round(float64(audioBytes) * 8 / float64(bitrate)))
}

package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
)

// Manager owns every job status transition. All writes to a job funnel
// through a per-job mutex so concurrent phase updates, completions and
// failures serialize, and the first terminal writer wins.
type Manager struct {
	storage interfaces.JobStorage
	events  interfaces.EventService
	logger  arbor.ILogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a job lifecycle manager
func NewManager(storage interfaces.JobStorage, events interfaces.EventService, logger arbor.ILogger) *Manager {
	return &Manager{
		storage: storage,
		events:  events,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (m *Manager) jobLock(jobID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[jobID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[jobID] = lock
	}
	return lock
}

func (m *Manager) releaseLock(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, jobID)
}

// MarkGenerating transitions a queued job to generating
func (m *Manager) MarkGenerating(ctx context.Context, jobID string) error {
	lock := m.jobLock(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := m.storage.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	if !job.Status.CanTransitionTo(models.JobStatusGenerating) {
		return fmt.Errorf("cannot transition job %s from %s to %s", jobID, job.Status, models.JobStatusGenerating)
	}

	job.Status = models.JobStatusGenerating
	job.UpdatedAt = time.Now()

	if err := m.storage.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	m.logger.Info().
		Str("job_id", jobID).
		Msg("Job generating")

	m.publish(ctx, interfaces.EventJobStarted, &models.JobEvent{
		Type:      models.PushEventProgress,
		JobID:     jobID,
		Status:    job.Status,
		Progress:  job.Progress,
		Timestamp: job.UpdatedAt,
	})

	return nil
}

// UpdateProgress raises a job's progress. Progress never moves backwards,
// and updates arriving after a terminal transition are dropped with a log
// line rather than an error.
func (m *Manager) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("progress must be in [0,100], got %d", progress)
	}

	lock := m.jobLock(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := m.storage.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	if job.Status.IsTerminal() {
		m.logger.Debug().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Int("progress", progress).
			Msg("Dropping progress update for terminal job")
		return nil
	}

	if progress <= job.Progress {
		return nil
	}

	job.Progress = progress
	job.UpdatedAt = time.Now()

	if err := m.storage.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	m.publish(ctx, interfaces.EventJobProgress, &models.JobEvent{
		Type:      models.PushEventProgress,
		JobID:     jobID,
		Status:    job.Status,
		Progress:  job.Progress,
		Timestamp: job.UpdatedAt,
	})

	return nil
}

// Complete transitions a job to completed with its result reference. If the
// job already reached a terminal status the call is a no-op.
func (m *Manager) Complete(ctx context.Context, jobID string, resultRef string, durationSeconds int) error {
	if resultRef == "" {
		return fmt.Errorf("resultRef is required to complete job %s", jobID)
	}

	lock := m.jobLock(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := m.storage.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	if job.Status.IsTerminal() {
		m.logger.Warn().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Msg("Ignoring completion for terminal job")
		return nil
	}

	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.ResultRef = resultRef
	job.DurationSeconds = durationSeconds
	job.Error = ""
	job.UpdatedAt = time.Now()

	if err := m.storage.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	m.logger.Info().
		Str("job_id", jobID).
		Str("result_ref", resultRef).
		Int("duration_seconds", durationSeconds).
		Msg("Job completed")

	m.publish(ctx, interfaces.EventJobCompleted, &models.JobEvent{
		Type:            models.PushEventCompleted,
		JobID:           jobID,
		Status:          job.Status,
		Progress:        job.Progress,
		ResultRef:       job.ResultRef,
		DurationSeconds: job.DurationSeconds,
		Timestamp:       job.UpdatedAt,
	})

	m.releaseLock(jobID)
	return nil
}

// Fail transitions a job to failed with an error message. If the job already
// reached a terminal status the call is a no-op.
func (m *Manager) Fail(ctx context.Context, jobID string, errorMsg string) error {
	if errorMsg == "" {
		errorMsg = "unknown error"
	}

	lock := m.jobLock(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := m.storage.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	if job.Status.IsTerminal() {
		m.logger.Warn().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Msg("Ignoring failure for terminal job")
		return nil
	}

	job.Status = models.JobStatusFailed
	job.Error = errorMsg
	job.ResultRef = ""
	job.UpdatedAt = time.Now()

	if err := m.storage.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	m.logger.Warn().
		Str("job_id", jobID).
		Str("error", errorMsg).
		Msg("Job failed")

	m.publish(ctx, interfaces.EventJobFailed, &models.JobEvent{
		Type:      models.PushEventError,
		JobID:     jobID,
		Status:    job.Status,
		Progress:  job.Progress,
		Error:     job.Error,
		Timestamp: job.UpdatedAt,
	})

	m.releaseLock(jobID)
	return nil
}

// GetJob returns a job by ID
func (m *Manager) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	return m.storage.GetJob(ctx, jobID)
}

// publish delivers the event synchronously while the per-job lock is held,
// so subscribers observe events for a given job in transition order.
func (m *Manager) publish(ctx context.Context, eventType interfaces.EventType, event *models.JobEvent) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishSync(ctx, interfaces.Event{Type: eventType, Payload: event}); err != nil {
		m.logger.Warn().
			Err(err).
			Str("job_id", event.JobID).
			Str("event_type", string(eventType)).
			Msg("Event delivery reported errors")
	}
}

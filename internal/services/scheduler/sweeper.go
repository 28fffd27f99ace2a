package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
)

// Sweeper periodically fails jobs stuck in generating past the configured
// deadline, typically after a crashed worker. The failure goes through the
// lifecycle manager so watchers and the webhook see it like any other.
type Sweeper struct {
	storage    interfaces.JobStorage
	lifecycle  interfaces.JobLifecycle
	staleAfter time.Duration
	cron       *cron.Cron
	logger     arbor.ILogger
}

// NewSweeper creates a stale-job sweeper
func NewSweeper(storage interfaces.JobStorage, lifecycle interfaces.JobLifecycle, config *common.PipelineConfig, logger arbor.ILogger) (*Sweeper, error) {
	staleAfter, err := time.ParseDuration(config.StaleAfter)
	if err != nil {
		return nil, fmt.Errorf("invalid stale_after duration '%s': %w", config.StaleAfter, err)
	}

	s := &Sweeper{
		storage:    storage,
		lifecycle:  lifecycle,
		staleAfter: staleAfter,
		cron:       cron.New(),
		logger:     logger,
	}

	if _, err := s.cron.AddFunc(config.SweepSchedule, s.Sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule '%s': %w", config.SweepSchedule, err)
	}

	return s, nil
}

// Start begins the sweep schedule
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info().
		Str("stale_after", s.staleAfter.String()).
		Msg("Stale job sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Stale job sweeper stopped")
}

// Sweep fails every generating job whose last update is older than the
// deadline
func (s *Sweeper) Sweep() {
	ctx := context.Background()

	jobs, err := s.storage.GetJobsByStatus(ctx, models.JobStatusGenerating)
	if err != nil {
		s.logger.Error().Err(err).Msg("Stale sweep query failed")
		return
	}

	cutoff := time.Now().Add(-s.staleAfter)
	swept := 0

	for _, job := range jobs {
		if job.UpdatedAt.After(cutoff) {
			continue
		}

		msg := fmt.Sprintf("generation timed out after %s", s.staleAfter)
		if err := s.lifecycle.Fail(ctx, job.ID, msg); err != nil {
			s.logger.Error().
				Err(err).
				Str("job_id", job.ID).
				Msg("Failed to fail stale job")
			continue
		}
		swept++
	}

	if swept > 0 {
		s.logger.Warn().
			Int("swept", swept).
			Msg("Stale jobs failed by sweeper")
	}
}

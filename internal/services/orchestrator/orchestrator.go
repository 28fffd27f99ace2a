package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
)

// Enqueuer is the admission side of the pipeline worker pool
type Enqueuer interface {
	Enqueue(job *models.Job) error
}

// Orchestrator is the submission front door: it validates requests, charges
// credits, records the job as queued and hands it to the pipeline.
type Orchestrator struct {
	storage  interfaces.JobStorage
	ledger   interfaces.CreditLedger
	pool     Enqueuer
	validate *validator.Validate
	config   *common.CreditsConfig
	logger   arbor.ILogger
}

// NewOrchestrator creates a job orchestrator
func NewOrchestrator(
	storage interfaces.JobStorage,
	ledger interfaces.CreditLedger,
	pool Enqueuer,
	config *common.CreditsConfig,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		storage:  storage,
		ledger:   ledger,
		pool:     pool,
		validate: validator.New(),
		config:   config,
		logger:   logger,
	}
}

// Submit validates and admits a new job. Credits are deducted before the job
// exists: a request refused for insufficient credit leaves no job behind.
func (o *Orchestrator) Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmitResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", interfaces.ErrInvalidInput)
	}

	if err := o.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrInvalidInput, validationMessage(err))
	}

	cost := o.config.CostPerJob
	remaining, ok, err := o.ledger.Reserve(ctx, req.OwnerID, cost)
	if err != nil {
		return nil, fmt.Errorf("credit reservation failed: %w", err)
	}
	if !ok {
		o.logger.Info().
			Str("owner_id", req.OwnerID).
			Int("balance", remaining).
			Int("cost", cost).
			Msg("Submission refused, insufficient credit")
		return nil, fmt.Errorf("%w: balance %d, cost %d", interfaces.ErrInsufficientCredit, remaining, cost)
	}

	job := models.NewJob(common.NewJobID(), req.OwnerID, req.Script, req.Options.Title, req.Kind)

	if err := o.storage.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := o.pool.Enqueue(job); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	o.logger.Info().
		Str("job_id", job.ID).
		Str("owner_id", req.OwnerID).
		Str("kind", string(req.Kind)).
		Int("remaining_credits", remaining).
		Msg("Job submitted")

	return &models.SubmitResponse{
		JobID:            job.ID,
		Status:           job.Status,
		Title:            job.Title,
		CreditsDeducted:  cost,
		RemainingCredits: remaining,
	}, nil
}

// GetStatus returns the caller-facing view of a job
func (o *Orchestrator) GetStatus(ctx context.Context, jobID string) (*models.JobView, error) {
	job, err := o.storage.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	view := job.View()
	return &view, nil
}

// ListJobs returns jobs matching the given filters
func (o *Orchestrator) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.Job, error) {
	return o.storage.ListJobs(ctx, opts)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

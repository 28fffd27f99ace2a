package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
)

type fakeJobStorage struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newFakeJobStorage() *fakeJobStorage {
	return &fakeJobStorage{jobs: make(map[string]*models.Job)}
}

func (s *fakeJobStorage) SaveJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobCopy := *job
	s.jobs[job.ID] = &jobCopy
	return nil
}

func (s *fakeJobStorage) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	jobCopy := *job
	return &jobCopy, nil
}

func (s *fakeJobStorage) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.Job, error) {
	return nil, nil
}

func (s *fakeJobStorage) GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Job
	for _, job := range s.jobs {
		if job.Status == status {
			jobCopy := *job
			out = append(out, &jobCopy)
		}
	}
	return out, nil
}

func (s *fakeJobStorage) CountJobs(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs), nil
}

// failRecorder records Fail calls without touching storage
type failRecorder struct {
	mu     sync.Mutex
	failed map[string]string
}

func newFailRecorder() *failRecorder {
	return &failRecorder{failed: make(map[string]string)}
}

func (r *failRecorder) MarkGenerating(ctx context.Context, jobID string) error { return nil }
func (r *failRecorder) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	return nil
}
func (r *failRecorder) Complete(ctx context.Context, jobID, resultRef string, durationSeconds int) error {
	return nil
}
func (r *failRecorder) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	return nil, interfaces.ErrJobNotFound
}

func (r *failRecorder) Fail(ctx context.Context, jobID, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[jobID] = errorMsg
	return nil
}

func (r *failRecorder) failedJobs() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.failed))
	for k, v := range r.failed {
		out[k] = v
	}
	return out
}

func testPipelineConfig() *common.PipelineConfig {
	return &common.PipelineConfig{
		StaleAfter:    "15m",
		SweepSchedule: "*/1 * * * *",
	}
}

func seedJob(t *testing.T, storage *fakeJobStorage, id string, status models.JobStatus, age time.Duration) {
	t.Helper()
	job := &models.Job{
		ID:        id,
		OwnerID:   "owner-1",
		Kind:      models.JobKindVideo,
		Status:    status,
		CreatedAt: time.Now().Add(-age),
		UpdatedAt: time.Now().Add(-age),
	}
	require.NoError(t, storage.SaveJob(context.Background(), job))
}

func TestSweepFailsStaleGeneratingJobs(t *testing.T) {
	storage := newFakeJobStorage()
	recorder := newFailRecorder()

	seedJob(t, storage, "job_stale", models.JobStatusGenerating, 30*time.Minute)
	seedJob(t, storage, "job_fresh", models.JobStatusGenerating, 1*time.Minute)
	seedJob(t, storage, "job_queued", models.JobStatusQueued, 30*time.Minute)
	seedJob(t, storage, "job_done", models.JobStatusCompleted, 30*time.Minute)

	sweeper, err := NewSweeper(storage, recorder, testPipelineConfig(), arbor.NewLogger())
	require.NoError(t, err)

	sweeper.Sweep()

	failed := recorder.failedJobs()
	require.Len(t, failed, 1)
	assert.Equal(t, "generation timed out after 15m0s", failed["job_stale"])
}

func TestSweepNoStaleJobs(t *testing.T) {
	storage := newFakeJobStorage()
	recorder := newFailRecorder()

	seedJob(t, storage, "job_fresh", models.JobStatusGenerating, 1*time.Minute)

	sweeper, err := NewSweeper(storage, recorder, testPipelineConfig(), arbor.NewLogger())
	require.NoError(t, err)

	sweeper.Sweep()
	assert.Empty(t, recorder.failedJobs())
}

func TestNewSweeperRejectsBadConfig(t *testing.T) {
	storage := newFakeJobStorage()
	recorder := newFailRecorder()

	_, err := NewSweeper(storage, recorder, &common.PipelineConfig{
		StaleAfter:    "not-a-duration",
		SweepSchedule: "*/1 * * * *",
	}, arbor.NewLogger())
	assert.Error(t, err)

	_, err = NewSweeper(storage, recorder, &common.PipelineConfig{
		StaleAfter:    "15m",
		SweepSchedule: "every minute",
	}, arbor.NewLogger())
	assert.Error(t, err)
}

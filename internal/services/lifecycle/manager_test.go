package lifecycle

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
)

// memJobStorage is an in-memory JobStorage for lifecycle tests
type memJobStorage struct {
	mu   sync.Mutex
	jobs map[string]models.Job
}

func newMemJobStorage() *memJobStorage {
	return &memJobStorage{jobs: make(map[string]models.Job)}
}

func (s *memJobStorage) SaveJob(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *memJobStorage) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	jobCopy := job
	return &jobCopy, nil
}

func (s *memJobStorage) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.Job, error) {
	return nil, nil
}

func (s *memJobStorage) GetJobsByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Job
	for _, job := range s.jobs {
		if job.Status == status {
			jobCopy := job
			out = append(out, &jobCopy)
		}
	}
	return out, nil
}

func (s *memJobStorage) CountJobs(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs), nil
}

// eventRecorder captures every published event in order
type eventRecorder struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *eventRecorder) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (r *eventRecorder) Publish(ctx context.Context, event interfaces.Event) error {
	return r.PublishSync(ctx, event)
}

func (r *eventRecorder) PublishSync(ctx context.Context, event interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) Close() error { return nil }

func (r *eventRecorder) terminalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == interfaces.EventJobCompleted || e.Type == interfaces.EventJobFailed {
			n++
		}
	}
	return n
}

func newTestManager(t *testing.T) (*Manager, *memJobStorage, *eventRecorder) {
	t.Helper()
	storage := newMemJobStorage()
	recorder := &eventRecorder{}
	return NewManager(storage, recorder, common.GetLogger()), storage, recorder
}

func seedJob(t *testing.T, storage *memJobStorage, id string) {
	t.Helper()
	job := models.NewJob(id, "owner-1", "print('hi')", "", models.JobKindVideo)
	require.NoError(t, storage.SaveJob(context.Background(), job))
}

func TestMarkGenerating(t *testing.T) {
	mgr, storage, _ := newTestManager(t)
	seedJob(t, storage, "job_1")

	require.NoError(t, mgr.MarkGenerating(context.Background(), "job_1"))

	job, err := mgr.GetJob(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusGenerating, job.Status)

	// Doing it twice is a transition violation
	assert.Error(t, mgr.MarkGenerating(context.Background(), "job_1"))
}

func TestUpdateProgressMonotonic(t *testing.T) {
	mgr, storage, _ := newTestManager(t)
	seedJob(t, storage, "job_1")
	require.NoError(t, mgr.MarkGenerating(context.Background(), "job_1"))

	require.NoError(t, mgr.UpdateProgress(context.Background(), "job_1", 35))
	require.NoError(t, mgr.UpdateProgress(context.Background(), "job_1", 10)) // stale update, silently dropped

	job, err := mgr.GetJob(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, 35, job.Progress)

	assert.Error(t, mgr.UpdateProgress(context.Background(), "job_1", 150))
}

func TestCompleteSetsTerminalFields(t *testing.T) {
	mgr, storage, recorder := newTestManager(t)
	seedJob(t, storage, "job_1")
	require.NoError(t, mgr.MarkGenerating(context.Background(), "job_1"))

	require.NoError(t, mgr.Complete(context.Background(), "job_1", "vid_abc", 42))

	job, err := mgr.GetJob(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "vid_abc", job.ResultRef)
	assert.Equal(t, 42, job.DurationSeconds)
	assert.Empty(t, job.Error)
	assert.Equal(t, 1, recorder.terminalCount())
}

func TestFailSetsTerminalFields(t *testing.T) {
	mgr, storage, recorder := newTestManager(t)
	seedJob(t, storage, "job_1")

	require.NoError(t, mgr.Fail(context.Background(), "job_1", "synthesize: voice unavailable"))

	job, err := mgr.GetJob(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "synthesize: voice unavailable", job.Error)
	assert.Empty(t, job.ResultRef)
	assert.Equal(t, 1, recorder.terminalCount())
}

func TestTerminalWriteOnce(t *testing.T) {
	mgr, storage, recorder := newTestManager(t)
	seedJob(t, storage, "job_1")
	require.NoError(t, mgr.MarkGenerating(context.Background(), "job_1"))

	require.NoError(t, mgr.Complete(context.Background(), "job_1", "vid_abc", 10))

	// Later failure and completion attempts are no-ops
	require.NoError(t, mgr.Fail(context.Background(), "job_1", "too late"))
	require.NoError(t, mgr.Complete(context.Background(), "job_1", "vid_other", 99))

	job, err := mgr.GetJob(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, "vid_abc", job.ResultRef)
	assert.Empty(t, job.Error)

	// Exactly one terminal event despite three terminal calls
	assert.Equal(t, 1, recorder.terminalCount())
}

func TestProgressFrozenAfterTerminal(t *testing.T) {
	mgr, storage, _ := newTestManager(t)
	seedJob(t, storage, "job_1")
	require.NoError(t, mgr.MarkGenerating(context.Background(), "job_1"))
	require.NoError(t, mgr.Fail(context.Background(), "job_1", "interpret: model refused"))

	job, err := mgr.GetJob(context.Background(), "job_1")
	require.NoError(t, err)
	frozen := job.Progress

	// Dropped, not an error
	require.NoError(t, mgr.UpdateProgress(context.Background(), "job_1", 90))

	job, err = mgr.GetJob(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, frozen, job.Progress)
}

func TestConcurrentTerminalWriters(t *testing.T) {
	mgr, storage, recorder := newTestManager(t)
	seedJob(t, storage, "job_1")
	require.NoError(t, mgr.MarkGenerating(context.Background(), "job_1"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				mgr.Complete(context.Background(), "job_1", "vid_abc", 10)
			} else {
				mgr.Fail(context.Background(), "job_1", "lost the race")
			}
		}(i)
	}
	wg.Wait()

	job, err := mgr.GetJob(context.Background(), "job_1")
	require.NoError(t, err)
	assert.True(t, job.Status.IsTerminal())
	require.NoError(t, job.Validate())
	assert.Equal(t, 1, recorder.terminalCount())
}

func TestUnknownJob(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	assert.ErrorIs(t, mgr.MarkGenerating(context.Background(), "nope"), interfaces.ErrJobNotFound)
	assert.ErrorIs(t, mgr.UpdateProgress(context.Background(), "nope", 10), interfaces.ErrJobNotFound)
	assert.ErrorIs(t, mgr.Complete(context.Background(), "nope", "vid_x", 1), interfaces.ErrJobNotFound)
	assert.ErrorIs(t, mgr.Fail(context.Background(), "nope", "x"), interfaces.ErrJobNotFound)
}

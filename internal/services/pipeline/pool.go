package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/models"
)

// Pool runs pipeline executions on a fixed set of workers fed by a buffered
// queue. When the queue is full the job runs on its own goroutine instead;
// admission control belongs to the credit ledger, not the queue.
type Pool struct {
	executor *Executor
	queue    chan *models.Job
	logger   arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool creates and starts a worker pool
func NewPool(executor *Executor, config *common.PipelineConfig, logger arbor.ILogger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		executor: executor,
		queue:    make(chan *models.Job, config.QueueSize),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < config.Concurrency; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	logger.Info().
		Int("concurrency", config.Concurrency).
		Int("queue_size", config.QueueSize).
		Msg("Pipeline worker pool started")

	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.executor.Execute(p.ctx, job)
		}
	}
}

// Enqueue hands a job to the pool. Never blocks the caller.
func (p *Pool) Enqueue(job *models.Job) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("worker pool is shut down")
	}
	p.mu.Unlock()

	select {
	case p.queue <- job:
		return nil
	default:
		p.logger.Warn().
			Str("job_id", job.ID).
			Msg("Pipeline queue full, running job on overflow goroutine")
		common.SafeGo(p.logger, "pipeline-overflow", func() {
			p.executor.Execute(p.ctx, job)
		})
		return nil
	}
}

// Shutdown stops accepting work and waits for in-flight jobs to finish
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
	p.cancel()

	p.logger.Info().Msg("Pipeline worker pool stopped")
}

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// RunnerConfig holds configuration for the job runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// Submitter accepts jobs for background execution.
type Submitter interface {
	Submit(ctx context.Context, job Job) error
}

// Runner owns a Queue and the WorkerPool draining it.
type Runner struct {
	queue     *Queue
	pool      *WorkerPool
	logger    *slog.Logger
	onDropped func(job Job, err error)
	startOnce sync.Once
	stopOnce  sync.Once
}

var _ Submitter = (*Runner)(nil)

// NewRunner creates a Runner. It does not start workers until Start.
func NewRunner(config RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "job_runner"))
	queue := NewQueue(config.QueueSize, logger)
	return &Runner{
		queue:  queue,
		pool:   NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger),
		logger: logger,
	}
}

// SetResultHandler forwards to the worker pool. Call before Start.
func (r *Runner) SetResultHandler(handler func(job Job, err error)) {
	r.pool.SetResultHandler(handler)
}

// SetDroppedHandler registers a callback for jobs Submit rejects.
func (r *Runner) SetDroppedHandler(handler func(job Job, err error)) {
	r.onDropped = handler
}

// Submit enqueues job without blocking. ErrQueueFull and ErrQueueClosed
// are returned (wrapped) when the job cannot be accepted.
func (r *Runner) Submit(ctx context.Context, job Job) error {
	if err := r.queue.Enqueue(job); err != nil {
		r.logger.Warn("job rejected",
			slog.String("job_id", job.ID().String()),
			slog.String("job_type", job.Type()),
			slog.String("error", err.Error()))
		if r.onDropped != nil {
			r.onDropped(job, err)
		}
		return fmt.Errorf("failed to submit job: %w", err)
	}
	return nil
}

// Start begins processing jobs. Calling Start more than once has no effect.
func (r *Runner) Start() {
	r.startOnce.Do(r.pool.Start)
}

// Stop stops accepting jobs and waits for queued and in-flight jobs to
// finish, or for ctx to expire.
func (r *Runner) Stop(ctx context.Context) error {
	var err error
	r.stopOnce.Do(func() {
		r.queue.Close()
		err = r.pool.Wait(ctx)
		r.logger.Info("job runner stopped")
	})
	return err
}

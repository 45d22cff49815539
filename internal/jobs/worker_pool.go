package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultJobTimeout bounds a single job execution.
const DefaultJobTimeout = 2 * time.Minute

// WorkerPool manages a pool of worker goroutines that process jobs
// from a queue until it is closed and drained.
type WorkerPool struct {
	// queue provides read access to the jobs to be processed
	queue QueueReader

	// workerCount is the number of concurrent workers to start
	workerCount int

	// jobTimeout bounds each Execute call
	jobTimeout time.Duration

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is the parent of every job context; cancel aborts in-flight jobs
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	// resultHandler is called after every job with its error, if any
	resultHandler func(job Job, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int

	// JobTimeout bounds each job. Zero means DefaultJobTimeout.
	JobTimeout time.Duration
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(queue QueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
	}
	timeout := config.JobTimeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		queue:       queue,
		workerCount: workerCount,
		jobTimeout:  timeout,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetResultHandler registers a callback invoked after each job completes.
// It must be called before Start.
func (p *WorkerPool) SetResultHandler(handler func(job Job, err error)) {
	p.resultHandler = handler
}

// Start launches the workers.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started", slog.Int("worker_count", p.workerCount))
}

// Wait blocks until every worker has exited, which happens once the queue
// is closed and drained, or ctx expires. On ctx expiry in-flight jobs are
// cancelled and Wait returns ctx.Err().
func (p *WorkerPool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	p.logger.Debug("starting worker", slog.Int("worker_id", id))

	for job := range p.queue.Jobs() {
		p.process(job, id)
	}
	p.logger.Debug("job channel closed, stopping worker", slog.Int("worker_id", id))
}

func (p *WorkerPool) process(job Job, workerID int) {
	log := p.logger.With(
		slog.String("job_id", job.ID().String()),
		slog.String("job_type", job.Type()),
		slog.Int("worker_id", workerID),
	)

	ctx, cancel := context.WithTimeout(p.ctx, p.jobTimeout)
	defer cancel()

	err := p.execute(ctx, job)
	if err != nil {
		log.Error("job execution failed", slog.String("error", err.Error()))
	} else {
		log.Debug("job completed")
	}
	if p.resultHandler != nil {
		p.resultHandler(job, err)
	}
}

// execute runs job, converting a panic into an error so one bad job does
// not take down its worker.
func (p *WorkerPool) execute(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Execute(ctx)
}

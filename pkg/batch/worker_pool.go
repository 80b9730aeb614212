package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/tsdocgen/pkg/util"
)

// Job is one file to transform.
type Job struct {
	Path  string
	JobID int
}

// Result is the outcome of a successful job.
type Result struct {
	Path    string
	OutPath string
	Amended bool
	JobID   int
}

// JobError is a failed job.
type JobError struct {
	Path  string
	JobID int
	Err   error
}

func (e JobError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e JobError) Unwrap() error {
	return e.Err
}

// Handler processes one job.
type Handler func(ctx context.Context, job Job) (Result, error)

// WorkerPool runs a Handler over submitted jobs on a fixed number of
// goroutines.
//
// Usage:
//
//	pool := NewWorkerPool(ctx, workers, handler, logger)
//	pool.Start()
//	defer pool.Stop()
//
//	go func() {
//	    for i, file := range files {
//	        pool.Submit(Job{Path: file, JobID: i})
//	    }
//	    pool.FinishSubmitting()
//	}()
//
//	for i := 0; i < len(files); i++ {
//	    select {
//	    case result := <-pool.Results():
//	    case err := <-pool.Errors():
//	    }
//	}
type WorkerPool struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	errors     chan JobError
	wg         sync.WaitGroup
	handler    Handler
	logger     *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a pool. numWorkers <= 0 uses
// util.GetOptimalPoolSize, which also sizes the parser pools, so workers
// never wait on a parser.
func NewWorkerPool(ctx context.Context, numWorkers int, handler Handler, logger *slog.Logger) *WorkerPool {
	numWorkers = util.GetOptimalPoolSizeWithOverride(numWorkers)
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numWorkers*2),
		results:    make(chan Result, numWorkers),
		errors:     make(chan JobError, numWorkers),
		handler:    handler,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns the workers. It must be called before Submit.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("WorkerPool already started")
		return
	}

	wp.logger.Debug("Starting worker pool", "workers", wp.numWorkers)

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("Worker cancelled", "worker_id", id)
			return

		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job Job) {
	result, err := wp.handler(wp.ctx, job)
	if err != nil {
		wp.logger.Debug("Job failed", "worker_id", workerID, "file", job.Path, "error", err)
		wp.jobsFailed.Add(1)
		select {
		case wp.errors <- JobError{Path: job.Path, JobID: job.JobID, Err: err}:
		case <-wp.ctx.Done():
		}
		return
	}

	wp.jobsProcessed.Add(1)
	result.JobID = job.JobID
	select {
	case wp.results <- result:
	case <-wp.ctx.Done():
	}
}

// Submit enqueues a job, blocking while the queue is full.
func (wp *WorkerPool) Submit(job Job) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}

	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled: %w", wp.ctx.Err())
	case wp.jobs <- job:
		wp.jobsSubmitted.Add(1)
		return nil
	}
}

func (wp *WorkerPool) Results() <-chan Result {
	return wp.results
}

func (wp *WorkerPool) Errors() <-chan JobError {
	return wp.errors
}

// Done is closed when the pool's context is cancelled.
func (wp *WorkerPool) Done() <-chan struct{} {
	return wp.ctx.Done()
}

// FinishSubmitting closes the job queue. Idempotent.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
		wp.logger.Debug("Jobs channel closed", "total_submitted", wp.jobsSubmitted.Load())
	}
}

// Wait blocks until all workers have exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Stop cancels outstanding work, waits for the workers and closes the
// result channels. Idempotent.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}

	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
	wp.cancel()
	wp.wg.Wait()

	close(wp.results)
	close(wp.errors)

	wp.logger.Debug("Worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load())
}

// GetStats returns current worker pool statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		QueueLength:   len(wp.jobs),
	}
}

// WorkerPoolStats contains statistics about the worker pool.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	QueueLength   int
}

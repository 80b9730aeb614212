package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tsdocgen/pkg/util"
)

func TestWorkerPool_ProcessesAllJobs(t *testing.T) {
	errOdd := errors.New("odd job")
	pool := NewWorkerPool(context.Background(), 3, func(_ context.Context, job Job) (Result, error) {
		if job.JobID%2 == 1 {
			return Result{}, errOdd
		}
		return Result{Path: job.Path, Amended: true}, nil
	}, util.Discard())
	pool.Start()
	defer pool.Stop()

	const total = 10
	go func() {
		for i := 0; i < total; i++ {
			_ = pool.Submit(Job{Path: fmt.Sprintf("file%d.tsx", i), JobID: i})
		}
		pool.FinishSubmitting()
	}()

	var results, failures int
	for i := 0; i < total; i++ {
		select {
		case res := <-pool.Results():
			assert.Equal(t, fmt.Sprintf("file%d.tsx", res.JobID), res.Path)
			results++
		case jobErr := <-pool.Errors():
			assert.ErrorIs(t, jobErr, errOdd)
			assert.Contains(t, jobErr.Error(), jobErr.Path)
			failures++
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	assert.Equal(t, 5, results)
	assert.Equal(t, 5, failures)

	pool.Wait()
	stats := pool.GetStats()
	assert.Equal(t, 3, stats.NumWorkers)
	assert.Equal(t, int64(total), stats.JobsSubmitted)
	assert.Equal(t, int64(5), stats.JobsProcessed)
	assert.Equal(t, int64(5), stats.JobsFailed)
}

func TestWorkerPool_DefaultSize(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0, nil, nil)
	assert.Equal(t, util.GetOptimalPoolSize(), pool.GetStats().NumWorkers)
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, func(context.Context, Job) (Result, error) {
		return Result{}, nil
	}, util.Discard())
	pool.Start()
	pool.Stop()

	assert.Error(t, pool.Submit(Job{Path: "late.tsx"}))

	// Stop and FinishSubmitting are idempotent.
	pool.Stop()
	pool.FinishSubmitting()
}

func TestWorkerPool_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var started atomic.Int32
	release := make(chan struct{})

	pool := NewWorkerPool(ctx, 2, func(ctx context.Context, _ Job) (Result, error) {
		started.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return Result{}, ctx.Err()
	}, util.Discard())
	pool.Start()

	require.NoError(t, pool.Submit(Job{Path: "a.tsx"}))
	cancel()

	select {
	case <-pool.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not observe cancellation")
	}

	pool.Stop()
	close(release)
	assert.Error(t, pool.Submit(Job{Path: "b.tsx"}))
}

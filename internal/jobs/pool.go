// Package jobs runs fire-and-forget background jobs with bounded
// concurrency, per-job soft deadlines, and panic isolation. Jobs have no
// result channel; outcomes are observable only through logs and metrics.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wisphive/fleetd/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.JobQueue = (*Pool)(nil)

// ErrShutdown is returned by Submit after Shutdown has been called.
var ErrShutdown = errors.New("jobs: pool is shut down")

// Pool executes submitted jobs concurrently up to a fixed bound. Every job
// runs under its own context: the pool's base context (cancelled on
// shutdown) plus the job's soft deadline, if any. A deadline is
// cooperative: the job body is expected to check ctx at its I/O and
// iteration boundaries, never to be killed mid-write.
type Pool struct {
	logger  *zap.Logger
	sem     *semaphore.Weighted
	metrics *metrics

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewPool creates a pool running at most maxConcurrent jobs at once.
func NewPool(logger *zap.Logger, maxConcurrent int) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		logger:  logger,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		metrics: newMetrics(),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Submit enqueues a job for execution and returns immediately; the job
// waits for a pool slot in its own goroutine. Job failures never surface
// here.
func (p *Pool) Submit(_ context.Context, job plugin.Job) error {
	if job.Run == nil {
		return fmt.Errorf("jobs: job %q has no body", job.Name)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrShutdown
	}
	p.wg.Add(1)
	p.mu.Unlock()

	p.metrics.submitted.WithLabelValues(job.Name).Inc()

	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.baseCtx, 1); err != nil {
			// Shutdown while queued: the job is dropped, which every job
			// in this core tolerates by being safely re-runnable.
			p.logger.Warn("job dropped before execution",
				zap.String("job", job.Name),
				zap.Error(err),
			)
			return
		}
		defer p.sem.Release(1)
		p.run(job)
	}()
	return nil
}

// Shutdown stops accepting jobs and waits for running ones to finish, up
// to ctx's deadline. Jobs still running when ctx expires keep their base
// context cancelled so they wind down cooperatively.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

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
		return fmt.Errorf("jobs: shutdown wait: %w", ctx.Err())
	}
}

func (p *Pool) run(job plugin.Job) {
	ctx := p.baseCtx
	var cancel context.CancelFunc
	if job.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := p.invoke(ctx, job)
	elapsed := time.Since(start)

	switch {
	case err == nil && ctx.Err() == context.DeadlineExceeded:
		// The job absorbed its own soft-deadline expiry and stopped with
		// a partial, consistent result. Counted separately from success.
		p.metrics.timedOut.WithLabelValues(job.Name).Inc()
		p.logger.Warn("job hit soft time limit",
			zap.String("job", job.Name),
			zap.Duration("elapsed", elapsed),
			zap.Duration("timeout", job.Timeout),
		)
	case err == nil:
		p.metrics.completed.WithLabelValues(job.Name).Inc()
		p.logger.Debug("job completed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", elapsed),
		)
	case errors.Is(err, context.DeadlineExceeded):
		p.metrics.timedOut.WithLabelValues(job.Name).Inc()
		p.logger.Error("job exceeded soft time limit",
			zap.String("job", job.Name),
			zap.Duration("elapsed", elapsed),
			zap.Duration("timeout", job.Timeout),
		)
	default:
		p.metrics.failed.WithLabelValues(job.Name).Inc()
		p.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	}
}

// invoke runs the job body with panic isolation. A panicking job counts
// as failed and must not take the worker down.
func (p *Pool) invoke(ctx context.Context, job plugin.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.panicked.WithLabelValues(job.Name).Inc()
			err = fmt.Errorf("job %q panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}

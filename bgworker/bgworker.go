// Package bgworker provides the fixed-size worker pool that runs actor batches.
package bgworker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/alitto/pond/v2"
	amperrors "github.com/amp-labs/eventual/errors"
	"github.com/amp-labs/eventual/logger"
	"go.uber.org/atomic"
)

const defaultWorkerCount = 10

var (
	// ErrPoolStopped is returned by Go once Shutdown has begun.
	ErrPoolStopped = errors.New("worker pool is stopped")

	// ErrShutdownTimeout is returned by Shutdown when in-flight tasks did not
	// finish within the grace period. Tasks still queued at that point are dropped.
	ErrShutdownTimeout = errors.New("worker pool shutdown timed out")
)

type poolOptions struct {
	name    string
	workers int
}

type Option func(*poolOptions)

// WithName sets the name used in logs and metric labels.
func WithName(name string) Option {
	return func(o *poolOptions) {
		o.name = name
	}
}

// WithWorkers sets the maximum number of concurrently running tasks.
// Values <= 0 select the default.
func WithWorkers(n int) Option {
	return func(o *poolOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// Pool is a bounded set of workers draining a shared, unbounded task queue.
type Pool struct {
	name    string
	workers int
	ctx     context.Context //nolint:containedctx
	cancel  context.CancelFunc
	pool    pond.Pool
	stopped *atomic.Bool
}

// New starts a pool. Cancelling ctx discards queued tasks, exactly as a
// shutdown that ran out of grace does.
func New(ctx context.Context, opts ...Option) *Pool {
	options := &poolOptions{
		name:    "actors",
		workers: defaultWorkerCount,
	}

	for _, opt := range opts {
		opt(options)
	}

	ctx, cancel := context.WithCancel(ctx)

	logger.Get(ctx).Debug("Initializing worker pool", "pool", options.name, "workers", options.workers)

	poolWorkers.WithLabelValues(options.name).Set(float64(options.workers))
	poolAlive.WithLabelValues(options.name).Set(1)

	return &Pool{
		name:    options.name,
		workers: options.workers,
		ctx:     ctx,
		cancel:  cancel,
		pool:    pond.NewPool(options.workers, pond.WithContext(ctx)),
		stopped: atomic.NewBool(false),
	}
}

// Workers returns the configured concurrency.
func (p *Pool) Workers() int {
	return p.workers
}

// Stopped reports whether the pool has stopped accepting tasks.
func (p *Pool) Stopped() bool {
	return p.stopped.Load() || p.pool.Stopped()
}

// Go queues f for execution. It never blocks on a busy pool. After Shutdown it
// returns an error wrapping ErrPoolStopped so producers can stop generating work.
func (p *Pool) Go(f func()) error {
	if p.stopped.Load() {
		tasksRejected.WithLabelValues(p.name).Inc()

		return ErrPoolStopped
	}

	err := p.pool.Go(func() {
		p.run(f)
	})
	if err != nil {
		tasksRejected.WithLabelValues(p.name).Inc()

		if errors.Is(err, pond.ErrPoolStopped) {
			return fmt.Errorf("%w: %w", ErrPoolStopped, err)
		}

		return err
	}

	tasksSubmitted.WithLabelValues(p.name).Inc()

	return nil
}

func (p *Pool) run(f func()) {
	tasksRunning.WithLabelValues(p.name).Inc()

	start := time.Now()

	defer func() {
		tasksRunning.WithLabelValues(p.name).Dec()
		taskTime.WithLabelValues(p.name).Observe(time.Since(start).Seconds())

		if r := recover(); r != nil {
			taskPanics.WithLabelValues(p.name).Inc()

			logger.Get(p.ctx).Error("worker task panicked",
				"pool", p.name,
				"error", amperrors.FromPanic(r, debug.Stack()))
		}
	}()

	f()
}

// Shutdown stops accepting tasks and waits up to grace for queued and running
// tasks to finish. If they do not, the pool context is cancelled so the
// remaining queue is discarded, and ErrShutdownTimeout is returned. Running
// tasks cannot be interrupted; they finish on their own.
func (p *Pool) Shutdown(grace time.Duration) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return ErrPoolStopped
	}

	defer poolAlive.WithLabelValues(p.name).Set(0)

	log := logger.Get(p.ctx)
	log.Debug("Stopping worker pool", "pool", p.name, "grace", grace)

	done := p.pool.Stop().Done()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
		p.cancel()
		log.Debug("Worker pool stopped", "pool", p.name)

		return nil
	case <-timer.C:
		p.cancel()
		log.Warn("Worker pool did not drain within grace period, dropping queued tasks",
			"pool", p.name,
			"waiting", p.pool.WaitingTasks(),
			"running", p.pool.RunningWorkers())

		return fmt.Errorf("%w after %s", ErrShutdownTimeout, grace)
	}
}

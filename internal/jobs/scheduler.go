package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Default pool sizing.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

// Scheduler runs tasks in the background. Schedule must not block waiting
// for a task to run.
type Scheduler interface {
	Schedule(task func(ctx context.Context)) error
}

// Pool is a Scheduler with a fixed number of workers draining a bounded
// queue. Tasks receive the context the pool was created with.
type Pool struct {
	ctx    context.Context
	logger *slog.Logger
	queue  chan func(ctx context.Context)
	eg     errgroup.Group

	mu     sync.RWMutex
	closed bool
}

var _ Scheduler = (*Pool)(nil)

// NewPool starts workers goroutines. Values below one fall back to the
// defaults.
func NewPool(ctx context.Context, workers, queueSize int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		ctx:    ctx,
		logger: logger,
		queue:  make(chan func(ctx context.Context), queueSize),
	}
	for range workers {
		p.eg.Go(func() error {
			for task := range p.queue {
				p.run(task)
			}
			return nil
		})
	}
	return p
}

// Schedule implements [Scheduler]. It returns ErrQueueFull instead of
// waiting when every queue slot is taken.
func (p *Pool) Schedule(task func(ctx context.Context)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrSchedulerClosed
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting tasks and waits for queued and running tasks to
// finish. Cancel the pool's context to cut them short.
func (p *Pool) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	return p.eg.Wait()
}

func (p *Pool) run(task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("background task panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	task(p.ctx)
}

package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueFull is returned by Submit when the run queue has no free slot.
var ErrQueueFull = errors.New("run queue is full")

// ErrPoolStopped is returned by Submit after the pool has shut down.
var ErrPoolStopped = errors.New("worker pool is stopped")

const (
	defaultWorkers  = 2
	defaultCapacity = 32
)

// RunExecutor drives one run to a terminal state.
type RunExecutor interface {
	Execute(ctx context.Context, runID string) error
}

// Pool executes submitted runs on a fixed set of workers. Submission is
// fire-and-forget: the caller observes the run in its pending state
// immediately while a worker picks it up later.
type Pool struct {
	logger  *slog.Logger
	exec    RunExecutor
	queue   chan string
	workers int

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given worker count and queue capacity.
// Non-positive values fall back to the defaults.
func NewPool(logger *slog.Logger, exec RunExecutor, workers, capacity int) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Pool{
		logger:  logger,
		exec:    exec,
		queue:   make(chan string, capacity),
		workers: workers,
	}
}

// Start launches the workers. They exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("starting run workers", "workers", p.workers, "capacity", cap(p.queue))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
	go func() {
		<-ctx.Done()
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
	}()
}

// Submit enqueues a run for execution without blocking. A full queue is
// rejected with ErrQueueFull.
func (p *Pool) Submit(runID string) error {
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return ErrPoolStopped
	}

	select {
	case p.queue <- runID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of queued runs not yet picked up.
func (p *Pool) Pending() int {
	return len(p.queue)
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.logger.With("worker", id)
	log.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker stopped")
			return
		case runID := <-p.queue:
			if err := p.exec.Execute(ctx, runID); err != nil {
				log.Error("run execution failed", "run_id", runID, "error", err)
			}
		}
	}
}

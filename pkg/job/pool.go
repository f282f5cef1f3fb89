package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Task is a unit of work run by a Pool worker. The context is canceled
// when the pool is forced down by an expired shutdown deadline.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed set of workers fed by a bounded queue.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	tasks  chan Task

	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	running atomic.Int64
	workers int
}

// NewPool starts a pool. Workers are running when NewPool returns.
func NewPool(opts ...Option) *Pool {
	cfg := newConfig(opts)
	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		ctx:     ctx,
		cancel:  cancel,
		logger:  cfg.logger,
		tasks:   make(chan Task, cfg.queueSize),
		workers: cfg.workers,
	}

	p.wg.Add(cfg.workers)
	for i := range cfg.workers {
		go p.work(i)
	}

	p.logger.Info("job pool started",
		slog.Int("workers", cfg.workers),
		slog.Int("queue_size", cfg.queueSize),
	)
	return p
}

// TrySubmit hands task to the pool without blocking.
func (p *Pool) TrySubmit(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Running reports how many tasks are executing right now.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Pending reports how many tasks are waiting for a worker.
func (p *Pool) Pending() int {
	return len(p.tasks)
}

// Closed reports whether Shutdown has been called.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Shutdown stops accepting tasks and waits for queued and running ones to
// finish. If ctx expires first, running tasks see their context canceled
// and Shutdown returns ctx.Err() without waiting further.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("job pool stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("job pool stop timed out", slog.Int("running", p.Running()))
		return ctx.Err()
	}
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task Task) {
	p.running.Add(1)
	defer p.running.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked",
				slog.Int("worker", id),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	task(p.ctx)
}

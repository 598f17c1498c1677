// ABOUTME: Bounded worker pool for background processing of webhook deliveries
// ABOUTME: Non-blocking submission, panic isolation, and bounded-grace drain

package webhook

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrPoolSaturated is returned when the task queue is full. The platform
// redelivers on its own schedule, so saturated submissions are dropped
// rather than blocking the delivery thread.
var ErrPoolSaturated = errors.New("worker pool saturated")

// ErrPoolClosed is returned when submitting after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// Pool runs submitted tasks on a fixed set of workers. Instances are
// constructor-injected rather than process-wide so tests can run isolated
// pools.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

// NewPool starts a pool with the given worker count and queue capacity.
func NewPool(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		tasks:  make(chan func(), queueSize),
		logger: logger.With("component", "pool"),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues a task without blocking. It fails fast with
// ErrPoolSaturated when the queue is full and ErrPoolClosed after Close.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolSaturated
	}
}

// Close stops accepting tasks and waits for in-flight ones to finish, up to
// the context's deadline. Tasks run to completion; there is no mid-flight
// cancellation.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker drains the task channel until it is closed. Panics are contained
// here so one bad task cannot take the worker down.
func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "panic", r)
		}
	}()
	task()
}

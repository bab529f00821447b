package worker

import (
	"context"
	"errors"
	"sync"

	"opportunityHub/pkg/logger"
)

// Policy decides what Submit does when the queue is full.
type Policy int

const (
	// PolicyCallerRuns executes the task on the submitting goroutine.
	// Used on user-facing best-effort paths that must not reject work.
	PolicyCallerRuns Policy = iota
	// PolicyDiscard drops the task silently. Used for audit-style work
	// where a saturated pool should degrade rather than push back.
	PolicyDiscard
	// PolicyAbort returns ErrQueueFull. Used for rate-sensitive
	// side-effects that must not amplify load during an incident.
	PolicyAbort
)

var ErrQueueFull = errors.New("worker pool queue full")

var ErrPoolClosed = errors.New("worker pool closed")

// Pool is a fixed set of workers pulling from a bounded queue.
type Pool struct {
	name   string
	policy Policy
	tasks  chan func()
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewPool(name string, workers, queueSize int, policy Policy) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		name:   name,
		policy: policy,
		tasks:  make(chan func(), queueSize),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}

	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.execute(task)
	}
}

func (p *Pool) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker task panicked", "pool", p.name, "panic", r)
		}
	}()
	task()
}

// Submit enqueues a task, applying the pool's overflow policy when the
// queue is full. Never blocks the caller waiting for queue space.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		if p.policy == PolicyCallerRuns {
			p.execute(task)
			return nil
		}
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
	}

	switch p.policy {
	case PolicyCallerRuns:
		p.execute(task)
		return nil
	case PolicyDiscard:
		logger.Debug("worker task discarded", "pool", p.name)
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and drains the queue, bounded by ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
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

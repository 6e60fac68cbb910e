package processing

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrQueueFull is returned by Submit when the bounded task queue cannot
// accept more work. Callers should surface it as back-pressure rather than
// queuing unboundedly.
var ErrQueueFull = errors.New("conversion queue is full")

const (
	defaultPoolWorkers = 4
	defaultQueueSize   = 8
	defaultTaskTimeout = 2 * time.Minute
)

type poolTask struct {
	ctx  context.Context
	run  func(context.Context) error
	done chan error
}

// Pool runs CPU-bound work on a fixed number of workers behind a bounded
// queue. It caps how many PDF conversions run truly in parallel so they do
// not starve request handling, and rejects excess work instead of queuing it
// without limit.
type Pool struct {
	queue   chan poolTask
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewPool starts a pool with the given worker count, queue capacity and
// per-task timeout. Non-positive values fall back to the defaults.
func NewPool(workers, queueSize int, taskTimeout time.Duration) *Pool {
	if workers <= 0 {
		workers = defaultPoolWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if taskTimeout <= 0 {
		taskTimeout = defaultTaskTimeout
	}

	p := &Pool{
		queue:   make(chan poolTask, queueSize),
		timeout: taskTimeout,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	log.Printf("INFO (Pool): Started %d workers (queue capacity %d, task timeout %s)", workers, queueSize, taskTimeout)
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		ctx, cancel := context.WithTimeout(task.ctx, p.timeout)
		task.done <- task.run(ctx)
		cancel()
	}
}

// Submit enqueues fn and blocks the calling goroutine until it completes or
// fails. The task runs under the caller's context bounded by the pool's task
// timeout. Returns ErrQueueFull immediately when the queue is saturated.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	task := poolTask{ctx: ctx, run: fn, done: make(chan error, 1)}
	select {
	case p.queue <- task:
	default:
		return ErrQueueFull
	}
	return <-task.done
}

// Close stops accepting work and waits for in-flight tasks to finish.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

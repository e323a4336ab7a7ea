// Package notify delivers ledger events outside the request path.
//
// Services hand events to an Emitter, which turns them into tasks on a bounded
// Dispatcher queue. Workers run each task with its own timeout; failures are
// logged and never reach the caller.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrDispatcherClosed is returned by Close when called twice.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Task is one unit of best-effort delivery work.
type Task func(ctx context.Context) error

// Submitter accepts tasks without blocking.
type Submitter interface {
	Submit(name string, task Task) bool
}

type job struct {
	name string
	task Task
}

// Dispatcher runs submitted tasks on a fixed pool of workers.
type Dispatcher struct {
	jobs    chan job
	workers int
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with the given worker count, queue capacity and per-task timeout.
// Call Start before submitting.
func NewDispatcher(workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		jobs:    make(chan job, queueSize),
		workers: workers,
		timeout: timeout,
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	log.Info().Int("workers", d.workers).Int("queue_size", cap(d.jobs)).Msg("notification dispatcher started")
}

// Submit enqueues a task. It returns false, and drops the task, when the queue
// is full or the dispatcher is closed.
func (d *Dispatcher) Submit(name string, task Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Warn().Str("task", name).Msg("dispatcher closed, dropping task")
		return false
	}
	select {
	case d.jobs <- job{name: name, task: task}:
		return true
	default:
		log.Warn().Str("task", name).Int("queue_size", cap(d.jobs)).Msg("notification queue full, dropping task")
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish or ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("notification dispatcher drained")
		return nil
	case <-ctx.Done():
		log.Warn().Int("pending", len(d.jobs)).Msg("notification dispatcher drain timed out")
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("task", j.name).Interface("panic", r).Msg("notification task panicked")
		}
	}()

	start := time.Now()
	if err := j.task(ctx); err != nil {
		log.Error().Err(err).Str("task", j.name).Dur("elapsed", time.Since(start)).Msg("notification task failed")
		return
	}
	log.Debug().Str("task", j.name).Dur("elapsed", time.Since(start)).Msg("notification task done")
}

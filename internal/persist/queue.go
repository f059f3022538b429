// Package persist runs durable writes off the conversation loop. A write that
// fails is logged and dropped; callers never wait for it.
package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueClosed is returned by Submit after Run has stopped
	ErrQueueClosed = errors.New("persist queue closed")
	// ErrQueueFull is returned by Submit when the buffer is full
	ErrQueueFull = errors.New("persist queue full")
)

// DefaultSize is the buffer used when NewQueue gets a size <= 0
const DefaultSize = 256

type job struct {
	name string
	run  func() error
}

// Queue is a single-worker write-behind queue
type Queue struct {
	jobs   chan job
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue buffering up to size jobs
func NewQueue(size int, logger *zap.Logger) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{
		jobs:   make(chan job, size),
		logger: logger,
	}
}

// Submit enqueues fn without blocking
func (q *Queue) Submit(name string, fn func() error) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job{name: name, run: fn}:
		return nil
	default:
		q.logger.Warn("Persist queue full, dropping write", zap.String("job", name))
		return ErrQueueFull
	}
}

// Run executes jobs until ctx is cancelled, then runs whatever is still
// buffered and closes the queue.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.closed = true
			q.mu.Unlock()
			q.drain()
			q.logger.Info("Persist queue stopped")
			return nil
		case j := <-q.jobs:
			q.execute(j)
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case j := <-q.jobs:
			q.execute(j)
		default:
			return
		}
	}
}

func (q *Queue) execute(j job) {
	start := time.Now()
	if err := j.run(); err != nil {
		q.logger.Error("Failed to persist",
			zap.String("job", j.name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
	}
}

// Pending returns the number of buffered jobs
func (q *Queue) Pending() int {
	return len(q.jobs)
}

package pool

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrClosed = errors.New("pool: closed")

// Pool is a fixed-size worker pool shared by every universe of a world.
// Tasks are not cancellable; Close waits for queued tasks and joins the
// workers.
type Pool struct {
	tasks  chan func()
	group  errgroup.Group
	mu     sync.RWMutex
	closed bool
	log    *zap.Logger
}

// New starts workers goroutines. At least one worker is always started.
func New(workers int, log *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{
		tasks: make(chan func(), workers*4),
		log:   log,
	}
	for i := 0; i < workers; i++ {
		p.group.Go(p.loop)
	}
	log.Debug("worker pool started", zap.Int("workers", workers))
	return p
}

func (p *Pool) loop() error {
	for task := range p.tasks {
		task()
	}
	return nil
}

// Close stops accepting tasks, drains the queue and joins every worker.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	_ = p.group.Wait()
	p.log.Debug("worker pool stopped")
}

// Future is the handle of a submitted task.
type Future[R any] struct {
	done  chan struct{}
	value R
	err   error
}

// Get blocks until the task has finished.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// Enqueue submits fn and returns its future. A panic inside fn is
// recovered and reported through Get.
func Enqueue[R any](p *Pool, fn func() (R, error)) *Future[R] {
	f := &Future[R]{done: make(chan struct{})}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		f.err = ErrClosed
		close(f.done)
		return f
	}
	p.tasks <- func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("pool: task panicked: %v", r)
				p.log.Error("pool task panicked", zap.Any("panic", r))
			}
		}()
		f.value, f.err = fn()
	}
	return f
}

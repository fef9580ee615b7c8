package workerpool

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"wheres-my-food/pkg/logger"
	"wheres-my-food/pkg/metrics"
)

// Task is detached work. It receives a context that outlives the request
// that scheduled it.
type Task func(ctx context.Context)

// Runner schedules detached tasks without blocking the caller.
type Runner interface {
	Submit(name string, task Task) bool
}

type job struct {
	name string
	task Task
}

// Pool runs tasks on a fixed set of workers fed by a bounded queue.
// Submit never blocks: a full queue drops the task.
type Pool struct {
	queue  chan job
	g      *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	mylog  *logger.Logger

	mu     sync.RWMutex
	closed bool
}

func New(workers, queueSize int, mylog *logger.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:  make(chan job, queueSize),
		g:      &errgroup.Group{},
		ctx:    ctx,
		cancel: cancel,
		mylog:  mylog,
	}

	for i := 0; i < workers; i++ {
		p.g.Go(p.work)
	}
	return p
}

func (p *Pool) work() error {
	for j := range p.queue {
		p.run(j)
	}
	return nil
}

func (p *Pool) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			p.mylog.Action("task_panicked").Error("Background task panicked", fmt.Errorf("%v", r), "task", j.name)
		}
	}()
	j.task(p.ctx)
}

func (p *Pool) Submit(name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.mylog.Action("task_dropped").Warn("Pool is closed, task dropped", "task", name)
		metrics.DroppedTasks.WithLabelValues(name).Inc()
		return false
	}

	select {
	case p.queue <- job{name: name, task: task}:
		return true
	default:
		p.mylog.Action("task_dropped").Warn("Queue is full, task dropped", "task", name, "capacity", cap(p.queue))
		metrics.DroppedTasks.WithLabelValues(name).Inc()
		return false
	}
}

// Close stops intake and waits until queued tasks finish or ctx expires.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.g.Wait() }()

	select {
	case err := <-done:
		p.cancel()
		return err
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("drain background tasks: %w", ctx.Err())
	}
}

// Inline runs every task synchronously on the caller's goroutine.
type Inline struct{}

func (Inline) Submit(_ string, task Task) bool {
	task(context.Background())
	return true
}

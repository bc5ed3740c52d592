package pipeline

import (
	"context"
	"sync"
)

// task is a unit of work run on an executor.
type task func(ctx context.Context)

// executor runs tasks one at a time on a single goroutine, in post order.
type executor struct {
	name  string
	tasks chan task

	mu   sync.Mutex
	done <-chan struct{} // nil while not running
}

const executorQueue = 16

func newExecutor(name string) *executor {
	return &executor{name: name, tasks: make(chan task, executorQueue)}
}

// post queues fn. It returns false when the executor is not running.
func (e *executor) post(fn task) bool {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done == nil {
		return false
	}

	select {
	case e.tasks <- fn:
		return true
	case <-done:
		return false
	}
}

// call runs fn on the executor and waits for it to return. It returns false
// when the executor stopped before fn completed.
func (e *executor) call(fn task) bool {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done == nil {
		return false
	}

	finished := make(chan struct{})
	wrapped := func(ctx context.Context) {
		defer close(finished)
		fn(ctx)
	}

	select {
	case e.tasks <- wrapped:
	case <-done:
		return false
	}

	select {
	case <-finished:
		return true
	case <-done:
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}

// running reports whether run is active.
func (e *executor) running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done != nil
}

// start marks the executor as running so post and call accept tasks. It
// must be called before loop, on the goroutine that starts the executors.
func (e *executor) start(ctx context.Context) {
	e.mu.Lock()
	e.done = ctx.Done()
	e.mu.Unlock()
}

// loop executes tasks until ctx is done. Tasks still queued at that point
// are dropped.
func (e *executor) loop(ctx context.Context) {
	defer func() {
		e.mu.Lock()
		e.done = nil
		e.mu.Unlock()
		for {
			select {
			case <-e.tasks:
			default:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-e.tasks:
			fn(ctx)
		}
	}
}

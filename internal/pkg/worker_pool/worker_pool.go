package worker_pool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"link_auditor/internal/pkg/errors"

	log "github.com/sirupsen/logrus"
)

type TaskFunc func(ctx context.Context) (any, error)

// TaskResult holds the outcome of a finished task (its ID, result value, or error).
type TaskResult struct {
	ID     string
	Result any
	Err    error
}

// workItem is an internal wrapper for tasks submitted to the pool.
type workItem struct {
	id string
	fn TaskFunc
}

// WorkerPool runs submitted tasks on a fixed number of goroutines. Submit blocks
// while every worker is busy, so tasks start in submission order.
// ResultsCh must be drained by the caller; it is closed once the pool is
// closed (or stopped) and every accepted task has reported.
type WorkerPool struct {
	tasksCh     chan workItem
	ResultsCh   chan TaskResult
	ctx         context.Context
	cancelFunc  context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once
	stopOnError bool
	log         *log.Logger
}

// NewWorkerPool initializes the worker pool with the given number of workers.
// If stopOnError is true, the pool will cancel on the first task error.
func NewWorkerPool(parentCtx context.Context, numWorkers int, stopOnError bool, logger *log.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(parentCtx)
	wp := &WorkerPool{
		tasksCh:     make(chan workItem),
		ResultsCh:   make(chan TaskResult),
		ctx:         ctx,
		cancelFunc:  cancel,
		stopOnError: stopOnError,
		log:         logger,
	}

	wp.wg.Add(numWorkers)
	for i := 1; i <= numWorkers; i++ {
		go wp.worker(i)
	}
	logger.Debugf("worker pool started with %d workers", numWorkers)

	go func() {
		wp.wg.Wait()
		logger.Debug("all workers exited, closing results channel")
		close(wp.ResultsCh)
	}()
	return wp
}

// Submit hands a task to the next free worker. It returns an error if the pool
// is canceled or closed before a worker accepts the task.
func (wp *WorkerPool) Submit(id string, taskFn TaskFunc) (err error) {
	defer func() {
		// send on a closed tasksCh
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprintf("worker pool is closed; task %s not accepted", id))
		}
	}()

	if wp.ctx.Err() != nil {
		wp.log.Warnf("submit rejected for task %s: pool is shutting down", id)
		return errors.New("worker pool is canceled; cannot accept new tasks")
	}

	select {
	case wp.tasksCh <- workItem{id: id, fn: taskFn}:
		return nil
	case <-wp.ctx.Done():
		wp.log.Warnf("submit failed for task %s: pool was canceled", id)
		return errors.New("worker pool is canceled; task not accepted")
	}
}

// Close signals that no more tasks will be submitted. Workers finish the tasks
// they hold and exit.
func (wp *WorkerPool) Close() {
	wp.closeOnce.Do(func() {
		close(wp.tasksCh)
	})
}

// Stop cancels the pool context. Running tasks observe the cancellation
// through the context they were given.
func (wp *WorkerPool) Stop() {
	wp.log.Debug("stop invoked: canceling worker pool")
	wp.cancelFunc()
	wp.Close()
}

func (wp *WorkerPool) worker(workerID int) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			wp.log.Debugf("worker %d exiting due to cancellation", workerID)
			return
		case task, ok := <-wp.tasksCh:
			if !ok {
				return
			}
			result, err := wp.run(task)
			if err != nil {
				wp.log.Debugf("task %s failed: %v", task.id, err)
				if wp.stopOnError {
					wp.log.Warnf("stopOnError active - canceling pool due to error in task %s", task.id)
					wp.cancelFunc()
				}
			}
			wp.ResultsCh <- TaskResult{ID: task.id, Result: result, Err: err}
		}
	}
}

// run executes one task, turning a panic into an error so a single task
// cannot take the pool down.
func (wp *WorkerPool) run(task workItem) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			wp.log.WithFields(log.Fields{
				`task`:  task.id,
				`panic`: fmt.Sprintf(`%v`, r),
				`stack`: string(debug.Stack()),
			}).Error(`task panicked`)
			result = nil
			err = errors.New(fmt.Sprintf("task %s panicked: %v", task.id, r))
		}
	}()
	return task.fn(wp.ctx)
}

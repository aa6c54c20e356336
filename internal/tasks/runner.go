package tasks

import (
	"errors"
	"sync"

	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/logger"
)

// PipelineFunc is the unit of work a task executes. Implementations
// observe the task's cancellation flag at their own checkpoints and
// return ErrTaskCancelled when they stop because of it.
type PipelineFunc func(task *domain.Task) error

// Runner executes pipelines on worker goroutines, one per task. The
// wrapper around the pipeline is the single place that converts an
// unhandled error into a failed task state.
type Runner struct {
	log logger.Interface
	wg  sync.WaitGroup
}

// NewRunner creates a runner.
func NewRunner(log logger.Interface) *Runner {
	return &Runner{log: log}
}

// Run schedules fn on a new worker goroutine. If the task was
// cancelled before the worker starts, the pipeline never runs.
func (r *Runner) Run(task *domain.Task, fn PipelineFunc) {
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		if task.Cancelled() {
			r.log.Info("task cancelled before starting", "task_id", task.ID())
			return
		}

		task.Start()
		r.log.Info("task started", "task_id", task.ID(), "type", string(task.Type()))

		err := fn(task)
		switch {
		case errors.Is(err, ErrTaskCancelled):
			r.log.Info("task execution cancelled", "task_id", task.ID())
		case err != nil:
			r.log.Error("task failed", "task_id", task.ID(), "error", err.Error())
			task.Complete(false, err.Error())
		default:
			// Complete is a no-op if the task was cancelled mid-run,
			// so cancellation wins any race with completion.
			task.Complete(true, "")
			r.log.Info("task completed", "task_id", task.ID())
		}
	}()
}

// Wait blocks until all scheduled workers have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

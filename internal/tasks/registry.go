// Package tasks tracks long-running background jobs: an in-memory
// registry of cancellable, progress-reporting tasks and a runner that
// executes scraping pipelines on worker goroutines.
//
// The registry is single-process and not durable: it starts empty and
// its contents are lost on restart.
package tasks

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/gohoops/internal/domain"
	"github.com/jonesrussell/gohoops/internal/logger"
)

// ErrTaskNotFound is returned when a task id is unknown.
var ErrTaskNotFound = errors.New("task not found")

// ErrTaskCancelled signals cooperative cancellation from inside a
// pipeline. It is control flow, not a failure: the runner exits
// quietly and the task keeps its cancelled state.
var ErrTaskCancelled = errors.New("task cancelled")

// DefaultRetention is how long terminal tasks are kept before Sweep
// removes them.
const DefaultRetention = time.Hour

// Registry is the process-wide mapping from task id to task. All map
// operations are serialized by a single mutex; per-task fields have
// their own synchronization (see domain.Task).
type Registry struct {
	mu        sync.Mutex
	tasks     map[string]*domain.Task
	retention time.Duration
	log       logger.Interface

	// now is replaceable in tests.
	now func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Interface) *Registry {
	return &Registry{
		tasks:     map[string]*domain.Task{},
		retention: DefaultRetention,
		log:       log,
		now:       time.Now,
	}
}

// SetNow replaces the registry clock. Test hook.
func (r *Registry) SetNow(fn func() time.Time) {
	r.now = fn
}

// Create allocates and registers a new pending task. The task is
// visible to concurrent readers as soon as Create returns.
func (r *Registry) Create(taskType domain.TaskType, params map[string]any) *domain.Task {
	task := domain.NewTask(uuid.New().String(), taskType, params)

	r.mu.Lock()
	r.tasks[task.ID()] = task
	r.mu.Unlock()

	r.log.Info("created task", "task_id", task.ID(), "type", string(taskType))
	return task
}

// Get returns the task with the given id.
func (r *Registry) Get(id string) (*domain.Task, error) {
	r.mu.Lock()
	task, ok := r.tasks[id]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}
	return task, nil
}

// Cancel requests cancellation of the task with the given id. A no-op
// on tasks that already reached a terminal state.
func (r *Registry) Cancel(id string) error {
	task, err := r.Get(id)
	if err != nil {
		return err
	}

	if task.Cancel() {
		r.log.Info("task marked for cancellation", "task_id", id)
	} else {
		r.log.Debug("cancel ignored, task already terminal",
			"task_id", id,
			"status", string(task.Status()),
		)
	}
	return nil
}

// Recent returns snapshots of the most recently created tasks, newest
// first, truncated to limit.
func (r *Registry) Recent(limit int) []domain.TaskSnapshot {
	r.mu.Lock()
	all := make([]*domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		all = append(all, task)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt().After(all[j].CreatedAt())
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	snapshots := make([]domain.TaskSnapshot, 0, len(all))
	for _, task := range all {
		snapshots = append(snapshots, task.Snapshot())
	}
	return snapshots
}

// Sweep deletes every task that is terminal and completed longer than
// the retention window ago. Pending and running tasks are never
// removed. Returns the number of tasks deleted.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, task := range r.tasks {
		if !task.Status().Terminal() {
			continue
		}
		completedAt := task.CompletedAt()
		if completedAt == nil || completedAt.After(cutoff) {
			continue
		}
		delete(r.tasks, id)
		removed++
	}

	if removed > 0 {
		r.log.Info("swept old tasks", "removed", removed)
	}
	return removed
}

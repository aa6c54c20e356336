// Package domain contains the core types shared across the application.
package domain

import (
	"sync"
	"sync/atomic"
	"time"
)

// TaskType identifies the kind of work a background task performs.
type TaskType string

const (
	TaskScrapeStats   TaskType = "scrape_stats"
	TaskScrapeRatings TaskType = "scrape_ratings"
	TaskScrapeScores  TaskType = "scrape_scores"
	TaskScrapeTRank   TaskType = "scrape_trank"
	TaskScrapeAll     TaskType = "scrape_all"
)

// TaskStatus represents a task state in the state machine.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusSuccess   TaskStatus = "success"
	StatusFailure   TaskStatus = "failure"
	StatusCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s TaskStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusCancelled
}

// maxRunningProgress caps progress while a task is still running;
// 100 is reserved for successful completion.
const maxRunningProgress = 99

// Task represents a background job with status tracking.
//
// The cancellation flag is atomic so any caller can set it without
// holding the task lock; all other mutable fields are guarded by mu and
// only ever written by the task's own worker (or Cancel).
type Task struct {
	id        string
	taskType  TaskType
	params    map[string]any
	createdAt time.Time

	cancelled atomic.Bool

	mu          sync.RWMutex
	status      TaskStatus
	startedAt   *time.Time
	completedAt *time.Time
	errMsg      string
	progress    int
}

// NewTask creates a task in the pending state.
func NewTask(id string, taskType TaskType, params map[string]any) *Task {
	if params == nil {
		params = map[string]any{}
	}
	return &Task{
		id:        id,
		taskType:  taskType,
		params:    params,
		createdAt: time.Now(),
		status:    StatusPending,
	}
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Type returns the task type.
func (t *Task) Type() TaskType { return t.taskType }

// CreatedAt returns the creation timestamp.
func (t *Task) CreatedAt() time.Time { return t.createdAt }

// Start marks the task as running. No-op once the task left the
// pending state.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusPending {
		return
	}
	now := time.Now()
	t.status = StatusRunning
	t.startedAt = &now
}

// Complete marks the task as finished. Cancellation is sticky: a task
// already cancelled keeps its cancelled state. Progress is forced to
// 100 only on success.
func (t *Task) Complete(success bool, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == StatusCancelled {
		return
	}
	now := time.Now()
	t.completedAt = &now
	t.errMsg = errMsg
	if success {
		t.status = StatusSuccess
		t.progress = 100
	} else {
		t.status = StatusFailure
	}
}

// UpdateProgress sets the progress percentage, clamped to [0, 99].
// No-op once the task reached a terminal state.
func (t *Task) UpdateProgress(progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Terminal() {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > maxRunningProgress {
		progress = maxRunningProgress
	}
	t.progress = progress
}

// Cancel requests cooperative cancellation. Returns true if the task
// was pending or running and is now cancelled; false if the task had
// already reached a terminal state.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusPending && t.status != StatusRunning {
		return false
	}
	t.cancelled.Store(true)
	now := time.Now()
	t.status = StatusCancelled
	t.completedAt = &now
	t.errMsg = "task cancelled by user"
	return true
}

// Cancelled reports whether cancellation has been requested. Safe to
// call from any goroutine without taking the task lock.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Status returns the current status.
func (t *Task) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Progress returns the current progress percentage.
func (t *Task) Progress() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress
}

// CompletedAt returns the completion timestamp, nil while the task is
// not terminal.
func (t *Task) CompletedAt() *time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.completedAt
}

// TaskSnapshot is an immutable view of a task, used for JSON responses.
type TaskSnapshot struct {
	ID          string         `json:"id"`
	Type        TaskType       `json:"type"`
	Status      TaskStatus     `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Params      map[string]any `json:"params"`
	Error       *string        `json:"error"`
	Progress    int            `json:"progress"`
}

// Snapshot returns a consistent point-in-time view of the task.
func (t *Task) Snapshot() TaskSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := TaskSnapshot{
		ID:          t.id,
		Type:        t.taskType,
		Status:      t.status,
		CreatedAt:   t.createdAt,
		StartedAt:   t.startedAt,
		CompletedAt: t.completedAt,
		Params:      t.params,
		Progress:    t.progress,
	}
	if t.errMsg != "" {
		msg := t.errMsg
		snap.Error = &msg
	}
	return snap
}

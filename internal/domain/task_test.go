package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTask() *Task {
	return NewTask("task-1", TaskScrapeStats, map[string]any{"start_year": 2024})
}

func TestTaskLifecycle(t *testing.T) {
	task := newTestTask()
	assert.Equal(t, StatusPending, task.Status())
	assert.Nil(t, task.CompletedAt())

	task.Start()
	assert.Equal(t, StatusRunning, task.Status())

	task.Complete(true, "")
	assert.Equal(t, StatusSuccess, task.Status())
	assert.Equal(t, 100, task.Progress())
	require.NotNil(t, task.CompletedAt())
}

func TestTaskCompleteFailureKeepsProgress(t *testing.T) {
	task := newTestTask()
	task.Start()
	task.UpdateProgress(40)

	task.Complete(false, "network error")

	assert.Equal(t, StatusFailure, task.Status())
	assert.Equal(t, 40, task.Progress())

	snap := task.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Equal(t, "network error", *snap.Error)
}

func TestTaskCancelPending(t *testing.T) {
	task := newTestTask()

	assert.True(t, task.Cancel())
	assert.Equal(t, StatusCancelled, task.Status())
	assert.True(t, task.Cancelled())
	require.NotNil(t, task.CompletedAt())

	snap := task.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Equal(t, "task cancelled by user", *snap.Error)
}

func TestTaskCancelRunning(t *testing.T) {
	task := newTestTask()
	task.Start()

	assert.True(t, task.Cancel())
	assert.Equal(t, StatusCancelled, task.Status())
	require.NotNil(t, task.CompletedAt())
}

func TestTaskCancelTerminalIsNoop(t *testing.T) {
	task := newTestTask()
	task.Start()
	task.Complete(true, "")
	completedAt := task.CompletedAt()

	assert.False(t, task.Cancel())
	assert.Equal(t, StatusSuccess, task.Status())
	assert.Equal(t, completedAt, task.CompletedAt())
}

func TestTaskCancellationWinsOverCompletion(t *testing.T) {
	task := newTestTask()
	task.Start()
	require.True(t, task.Cancel())

	// A worker finishing after cancellation must not overwrite the state.
	task.Complete(true, "")

	assert.Equal(t, StatusCancelled, task.Status())
	assert.NotEqual(t, 100, task.Progress())
}

func TestTaskUpdateProgressClamps(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{name: "negative clamps to zero", input: -5, want: 0},
		{name: "in range passes through", input: 42, want: 42},
		{name: "above cap clamps to 99", input: 150, want: 99},
		{name: "exactly 100 clamps to 99", input: 100, want: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTestTask()
			task.Start()
			task.UpdateProgress(tt.input)
			assert.Equal(t, tt.want, task.Progress())
		})
	}
}

func TestTaskUpdateProgressAfterTerminalIsNoop(t *testing.T) {
	task := newTestTask()
	task.Start()
	task.Complete(true, "")

	task.UpdateProgress(10)
	assert.Equal(t, 100, task.Progress())
}

func TestTaskSnapshotFields(t *testing.T) {
	task := newTestTask()
	snap := task.Snapshot()

	assert.Equal(t, "task-1", snap.ID)
	assert.Equal(t, TaskScrapeStats, snap.Type)
	assert.Equal(t, StatusPending, snap.Status)
	assert.Equal(t, map[string]any{"start_year": 2024}, snap.Params)
	assert.Nil(t, snap.StartedAt)
	assert.Nil(t, snap.CompletedAt)
	assert.Nil(t, snap.Error)
	assert.Zero(t, snap.Progress)
}

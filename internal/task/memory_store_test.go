package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTaskStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, second := newStubTask(), newStubTask()
	require.NoError(t, s.SaveTask(ctx, first))
	require.NoError(t, s.SaveTask(ctx, second))

	pending, err := s.GetTasksByStatus(ctx, TaskStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID(), pending[0].ID, "oldest first")
	assert.Equal(t, []byte("test payload"), pending[0].Payload)

	require.NoError(t, s.UpdateTaskStatus(ctx, first.ID(), TaskStatusFailed, "boom"))
	failed, err := s.GetTasksByStatus(ctx, TaskStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].Error)
	assert.True(t, failed[0].UpdatedAt.After(failed[0].CreatedAt))

	require.NoError(t, s.UpdateTaskStatus(ctx, second.ID(), TaskStatusCompleted, ""))
	pending, err = s.GetTasksByStatus(ctx, TaskStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	err = s.UpdateTaskStatus(ctx, second.ID(), TaskStatusFailed, "")
	assert.ErrorIs(t, err, ErrTaskNotFound, "completed tasks are dropped")

	err = s.UpdateTaskStatus(ctx, uuid.New(), TaskStatusProcessing, "")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMemoryTaskStore_FailedRetention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore(WithFailedRetention(2))
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	tasks := []*stubTask{newStubTask(), newStubTask(), newStubTask()}
	for _, task := range tasks {
		require.NoError(t, s.SaveTask(ctx, task))
	}
	pendingTask := newStubTask()
	require.NoError(t, s.SaveTask(ctx, pendingTask))

	for _, task := range tasks {
		require.NoError(t, s.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, "insert failed"))
	}

	failed, err := s.GetTasksByStatus(ctx, TaskStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.ElementsMatch(t, []uuid.UUID{tasks[1].ID(), tasks[2].ID()}, []uuid.UUID{failed[0].ID, failed[1].ID})

	err = s.UpdateTaskStatus(ctx, tasks[0].ID(), TaskStatusFailed, "")
	assert.ErrorIs(t, err, ErrTaskNotFound, "oldest failure is evicted")

	pending, err := s.GetTasksByStatus(ctx, TaskStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1, "pending work is never evicted")
	assert.Equal(t, pendingTask.ID(), pending[0].ID)
}

func TestNewMemoryTaskStore_IgnoresInvalidRetention(t *testing.T) {
	assert.Equal(t, DefaultFailedRetention, NewMemoryTaskStore(WithFailedRetention(0)).failedRetention)
}

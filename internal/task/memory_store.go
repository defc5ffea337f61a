package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned when a status update names an unknown task.
var ErrTaskNotFound = errors.New("task not found")

// DefaultFailedRetention is the number of failed tasks a MemoryTaskStore
// keeps for inspection.
const DefaultFailedRetention = 100

// MemoryTaskStore is a process-local TaskStore. Completed tasks are dropped
// as soon as they finish. Failed tasks are kept with their payload, but only
// the most recent failures up to the retention limit; older ones are evicted
// when a new failure is recorded.
type MemoryTaskStore struct {
	mu              sync.RWMutex
	tasks           map[uuid.UUID]*TaskRecord
	now             func() time.Time
	failedRetention int
}

var _ TaskStore = (*MemoryTaskStore)(nil)

// MemoryStoreOption configures a MemoryTaskStore.
type MemoryStoreOption func(*MemoryTaskStore)

// WithFailedRetention sets how many failed tasks are kept. Values below 1
// are ignored.
func WithFailedRetention(n int) MemoryStoreOption {
	return func(s *MemoryTaskStore) {
		if n >= 1 {
			s.failedRetention = n
		}
	}
}

// NewMemoryTaskStore creates an empty MemoryTaskStore.
func NewMemoryTaskStore(opts ...MemoryStoreOption) *MemoryTaskStore {
	s := &MemoryTaskStore{
		tasks:           make(map[uuid.UUID]*TaskRecord),
		now:             time.Now,
		failedRetention: DefaultFailedRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveTask records a task with its current status.
func (s *MemoryTaskStore) SaveTask(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.tasks[task.ID()] = &TaskRecord{
		ID:        task.ID(),
		Type:      task.Type(),
		Payload:   task.Payload(),
		Status:    task.Status(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// UpdateTaskStatus updates the status of a task.
func (s *MemoryTaskStore) UpdateTaskStatus(
	_ context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	if status == TaskStatusCompleted {
		delete(s.tasks, taskID)
		return nil
	}

	record.Status = status
	record.Error = errorMsg
	record.UpdatedAt = s.now().UTC()

	if status == TaskStatusFailed {
		s.evictFailed()
	}
	return nil
}

// evictFailed drops the oldest failed tasks beyond the retention limit.
// Callers must hold s.mu.
func (s *MemoryTaskStore) evictFailed() {
	var failed []*TaskRecord
	for _, r := range s.tasks {
		if r.Status == TaskStatusFailed {
			failed = append(failed, r)
		}
	}
	if len(failed) <= s.failedRetention {
		return
	}

	sort.Slice(failed, func(i, j int) bool {
		return failed[i].UpdatedAt.Before(failed[j].UpdatedAt)
	})
	for _, r := range failed[:len(failed)-s.failedRetention] {
		delete(s.tasks, r.ID)
	}
}

// GetTasksByStatus returns copies of all tasks with the given status, oldest
// first.
func (s *MemoryTaskStore) GetTasksByStatus(_ context.Context, status TaskStatus) ([]TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []TaskRecord{}
	for _, r := range s.tasks {
		if r.Status == status {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

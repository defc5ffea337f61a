package mocks

import (
	"context"

	"github.com/phrazzld/trip-planner-api/internal/task"
	"github.com/stretchr/testify/mock"
)

// TestifyMockTaskRunner is a mock of the task submission interface for use with testify/mock
type TestifyMockTaskRunner struct {
	mock.Mock
}

// Submit is a mock implementation of TaskRunner.Submit
func (m *TestifyMockTaskRunner) Submit(ctx context.Context, t task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

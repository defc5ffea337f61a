package task

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// stubTask is a Task whose behavior is set per test.
type stubTask struct {
	id       uuid.UUID
	taskType string
	payload  []byte
	status   TaskStatus
	execFn   func(ctx context.Context) error
}

func (s *stubTask) ID() uuid.UUID      { return s.id }
func (s *stubTask) Type() string       { return s.taskType }
func (s *stubTask) Payload() []byte    { return s.payload }
func (s *stubTask) Status() TaskStatus { return s.status }

func (s *stubTask) Execute(ctx context.Context) error {
	if s.execFn != nil {
		return s.execFn(ctx)
	}
	return nil
}

func newStubTask() *stubTask {
	return &stubTask{
		id:       uuid.New(),
		taskType: "stub",
		payload:  []byte("test payload"),
		status:   TaskStatusPending,
	}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

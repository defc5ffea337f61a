package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/phrazzld/trip-planner-api/internal/domain"
	"github.com/phrazzld/trip-planner-api/internal/store"
)

// Common errors
var (
	ErrNilTrip      = errors.New("trip cannot be nil")
	ErrNilTripStore = errors.New("trip store cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
)

// DefaultPersistMaxAttempts bounds the inserts made by a PersistTripTask.
const DefaultPersistMaxAttempts = 5

// TripInserter is the part of store.TripStore a PersistTripTask needs.
type TripInserter interface {
	Insert(ctx context.Context, trip *domain.Trip) (string, error)
}

// PersistTripTask implements the Task interface for storing a generated trip
// whose first insert failed. Inserts are retried with exponential backoff.
type PersistTripTask struct {
	id          uuid.UUID
	trip        *domain.Trip
	store       TripInserter
	logger      *slog.Logger
	maxAttempts int
	newBackOff  func() backoff.BackOff

	mu     sync.Mutex
	status TaskStatus
}

// PersistOption configures a PersistTripTask.
type PersistOption func(*PersistTripTask)

// WithMaxAttempts sets the maximum number of inserts. Values below 1 are ignored.
func WithMaxAttempts(n int) PersistOption {
	return func(t *PersistTripTask) {
		if n >= 1 {
			t.maxAttempts = n
		}
	}
}

// WithBackOff sets the backoff schedule between inserts.
func WithBackOff(newBackOff func() backoff.BackOff) PersistOption {
	return func(t *PersistTripTask) { t.newBackOff = newBackOff }
}

// NewPersistTripTask creates a new trip persistence task
func NewPersistTripTask(
	trip *domain.Trip,
	tripStore TripInserter,
	logger *slog.Logger,
	opts ...PersistOption,
) (*PersistTripTask, error) {
	if trip == nil {
		return nil, ErrNilTrip
	}
	if tripStore == nil {
		return nil, ErrNilTripStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	t := &PersistTripTask{
		id:          uuid.New(),
		trip:        trip,
		store:       tripStore,
		logger:      logger.With("task_type", TaskTypePersistTrip, "trip_id", trip.ID),
		maxAttempts: DefaultPersistMaxAttempts,
		newBackOff:  defaultPersistBackOff,
		status:      TaskStatusPending,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func defaultPersistBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 5 * time.Minute
	return b
}

// ID returns the task's unique identifier
func (t *PersistTripTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *PersistTripTask) Type() string {
	return TaskTypePersistTrip
}

// Payload returns the trip document
func (t *PersistTripTask) Payload() []byte {
	data, err := json.Marshal(t.trip)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *PersistTripTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *PersistTripTask) setStatus(status TaskStatus) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

// Execute inserts the trip, retrying failures until the attempt budget is
// spent. A duplicate id means an earlier attempt succeeded and counts as
// success; an invalid document is not retried.
func (t *PersistTripTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)
	t.logger.Info("starting trip persistence task")

	attempts := 0
	operation := func() error {
		attempts++
		_, err := t.store.Insert(ctx, t.trip)
		switch {
		case err == nil:
			return nil
		case store.IsDuplicateError(err):
			t.logger.Info("trip already stored")
			return nil
		case errors.Is(err, store.ErrInvalidEntity):
			return backoff.Permanent(err)
		default:
			return err
		}
	}
	notify := func(err error, delay time.Duration) {
		t.logger.Warn("trip insert failed, retrying",
			"attempt", attempts,
			"delay", delay,
			"error", err)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(t.newBackOff(), uint64(t.maxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		t.setStatus(TaskStatusFailed)
		t.logger.Error("failed to persist trip", "attempts", attempts, "error", err)
		return fmt.Errorf("failed to persist trip after %d attempts: %w", attempts, err)
	}

	t.setStatus(TaskStatusCompleted)
	t.logger.Info("trip persisted", "attempts", attempts)
	return nil
}

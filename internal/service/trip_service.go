package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/trip-planner-api/internal/domain"
	"github.com/phrazzld/trip-planner-api/internal/generation"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
	"github.com/phrazzld/trip-planner-api/internal/store"
	"github.com/phrazzld/trip-planner-api/internal/task"
)

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(ctx context.Context, task task.Task) error
}

// PlanResult is the outcome of planning a trip.
type PlanResult struct {
	Trip *domain.Trip

	// Persisted is false when the first insert failed and the trip was
	// handed to a background task instead.
	Persisted bool
}

// TripService provides itinerary operations
type TripService interface {
	// Plan generates an itinerary for req and stores it
	Plan(ctx context.Context, req domain.GenerationRequest) (*PlanResult, error)

	// List returns all stored trips
	List(ctx context.Context) ([]*domain.Trip, error)

	// Get retrieves a trip by id
	Get(ctx context.Context, id string) (*domain.Trip, error)

	// Update merges patch into a stored trip. A patch may not change the id.
	Update(ctx context.Context, id string, patch map[string]any) (*domain.Trip, error)

	// Delete removes a trip
	Delete(ctx context.Context, id string) error
}

// TripServiceError wraps errors from the trip service with context.
type TripServiceError struct {
	// Operation is the operation that failed (e.g., "plan", "update")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TripServiceError.
func (e *TripServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("trip service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("trip service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TripServiceError) Unwrap() error {
	return e.Err
}

// NewTripServiceError creates a new TripServiceError.
// It returns known sentinel errors directly without wrapping.
func NewTripServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTripNotFound) || errors.Is(err, store.ErrTripNotFound) {
		return ErrTripNotFound
	}

	return &TripServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// Option configures optional TripService behavior.
type Option func(*tripServiceImpl)

// WithPersistOptions sets the options used for deferred persistence tasks.
func WithPersistOptions(opts ...task.PersistOption) Option {
	return func(s *tripServiceImpl) { s.persistOpts = opts }
}

// tripServiceImpl implements the TripService interface
type tripServiceImpl struct {
	generator   generation.Generator
	trips       store.TripStore
	taskRunner  TaskRunner
	persistOpts []task.PersistOption
	logger      *slog.Logger
}

// NewTripService creates a new TripService
// It returns an error if any of the required dependencies are nil.
func NewTripService(
	generator generation.Generator,
	trips store.TripStore,
	taskRunner TaskRunner,
	logger *slog.Logger,
	opts ...Option,
) (TripService, error) {
	if generator == nil {
		return nil, &TripServiceError{Operation: "create_service", Message: "generator cannot be nil"}
	}
	if trips == nil {
		return nil, &TripServiceError{Operation: "create_service", Message: "trip store cannot be nil"}
	}
	if taskRunner == nil {
		return nil, &TripServiceError{Operation: "create_service", Message: "taskRunner cannot be nil"}
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	s := &tripServiceImpl{
		generator:  generator,
		trips:      trips,
		taskRunner: taskRunner,
		logger:     logger.With("component", "trip_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Plan generates a trip and stores it. Generation errors are returned
// unchanged so callers can inspect their kind. When the insert fails the
// trip is queued for background persistence and still returned.
func (s *tripServiceImpl) Plan(ctx context.Context, req domain.GenerationRequest) (*PlanResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	trip, err := s.generator.GenerateTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	id, err := s.trips.Insert(ctx, trip)
	if err == nil {
		trip.ID = id
		log.Info("trip planned and stored",
			"trip_id", id,
			"destination", trip.Destination)
		return &PlanResult{Trip: trip, Persisted: true}, nil
	}

	log.Warn("failed to store generated trip, deferring persistence",
		"trip_id", trip.ID,
		"error", err)

	persistTask, taskErr := task.NewPersistTripTask(trip, s.trips, s.logger, s.persistOpts...)
	if taskErr != nil {
		return nil, NewTripServiceError("plan", "failed to create persistence task",
			fmt.Errorf("%w: %w", ErrPersistenceUnavailable, taskErr))
	}
	if submitErr := s.taskRunner.Submit(ctx, persistTask); submitErr != nil {
		log.Error("failed to queue trip persistence",
			"trip_id", trip.ID,
			"insert_error", err,
			"submit_error", submitErr)
		return nil, NewTripServiceError("plan", "failed to store trip",
			fmt.Errorf("%w: %w", ErrPersistenceUnavailable, errors.Join(err, submitErr)))
	}

	log.Info("trip persistence deferred",
		"trip_id", trip.ID,
		"task_id", persistTask.ID())
	return &PlanResult{Trip: trip, Persisted: false}, nil
}

// List returns all stored trips.
func (s *tripServiceImpl) List(ctx context.Context) ([]*domain.Trip, error) {
	trips, err := s.trips.List(ctx)
	if err != nil {
		return nil, NewTripServiceError("list", "failed to list trips", err)
	}
	return trips, nil
}

// Get retrieves a trip by id.
func (s *tripServiceImpl) Get(ctx context.Context, id string) (*domain.Trip, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidID
	}
	trip, err := s.trips.Get(ctx, id)
	if err != nil {
		return nil, NewTripServiceError("get", "failed to get trip", err)
	}
	return trip, nil
}

// Update merges patch into the stored trip.
func (s *tripServiceImpl) Update(ctx context.Context, id string, patch map[string]any) (*domain.Trip, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidID
	}
	for _, key := range idKeys {
		if raw, ok := patch[key]; ok {
			if patchID, isString := raw.(string); !isString || patchID != id {
				return nil, domain.ErrImmutableID
			}
		}
	}

	trip, err := s.trips.Update(ctx, id, sanitizePatch(patch))
	if err != nil {
		return nil, NewTripServiceError("update", "failed to update trip", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("trip updated", "trip_id", id)
	return trip, nil
}

// idKeys are the patch keys that may name a trip's identity.
var idKeys = []string{"id", "_id"}

// sanitizePatch drops identity aliases that must not be written into the
// stored document.
func sanitizePatch(patch map[string]any) map[string]any {
	clean := make(map[string]any, len(patch))
	for k, v := range patch {
		if k == "_id" || k == "tripId" {
			continue
		}
		clean[k] = v
	}
	return clean
}

// Delete removes a trip.
func (s *tripServiceImpl) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidID
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		return NewTripServiceError("delete", "failed to delete trip", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("trip deleted", "trip_id", id)
	return nil
}

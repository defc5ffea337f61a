package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/trip-planner-api/internal/domain"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
	"github.com/phrazzld/trip-planner-api/internal/store"
)

const (
	insertTripQuery = `
		INSERT INTO trip_plans (id, document, created_at, updated_at)
		VALUES ($1, $2::jsonb, $3, $3)
	`
	listTripsQuery = `
		SELECT document FROM trip_plans
		ORDER BY created_at DESC
	`
	getTripQuery = `
		SELECT document FROM trip_plans
		WHERE id = $1
	`
	lockTripQuery = `
		SELECT document FROM trip_plans
		WHERE id = $1
		FOR UPDATE
	`
	updateTripQuery = `
		UPDATE trip_plans
		SET document = $2::jsonb, updated_at = $3
		WHERE id = $1
	`
	deleteTripQuery = `
		DELETE FROM trip_plans
		WHERE id = $1
	`
	countTripsQuery = `SELECT COUNT(*) FROM trip_plans`
)

// PostgresTripStore implements the store.TripStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTripStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Ensure PostgresTripStore implements store.TripStore interface
var _ store.TripStore = (*PostgresTripStore)(nil)

// NewPostgresTripStore creates a new PostgreSQL implementation of the TripStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTripStore(db *sql.DB, logger *slog.Logger) *PostgresTripStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTripStore{
		db:     db,
		logger: logger.With(slog.String("component", "trip_store")),
		now:    time.Now,
	}
}

// Insert stores a new trip. A trip without an id is assigned one.
func (s *PostgresTripStore) Insert(ctx context.Context, trip *domain.Trip) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if trip == nil {
		return "", fmt.Errorf("%w: trip cannot be nil", store.ErrInvalidEntity)
	}
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}

	doc, err := json.Marshal(trip)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode trip: %v", store.ErrInvalidEntity, err)
	}

	_, err = s.db.ExecContext(ctx, insertTripQuery, trip.ID, string(doc), s.now().UTC())
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("trip already exists", slog.String("trip_id", trip.ID))
			return "", fmt.Errorf("%w: %v", store.ErrTripExists, err)
		}
		log.Error("failed to insert trip",
			slog.String("trip_id", trip.ID),
			slog.String("error", err.Error()))
		return "", store.NewStoreError("trip", "insert", "failed to insert trip", MapError(err))
	}

	log.Debug("trip inserted", slog.String("trip_id", trip.ID))
	return trip.ID, nil
}

// List returns all stored trips, newest first.
func (s *PostgresTripStore) List(ctx context.Context) ([]*domain.Trip, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, listTripsQuery)
	if err != nil {
		log.Error("failed to list trips", slog.String("error", err.Error()))
		return nil, store.NewStoreError("trip", "list", "failed to query trips", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	trips := []*domain.Trip{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, store.NewStoreError("trip", "list", "failed to scan trip", err)
		}
		trip, err := decodeTrip(doc)
		if err != nil {
			log.Warn("skipping undecodable trip document", slog.String("error", err.Error()))
			continue
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("trip", "list", "failed to iterate trips", MapError(err))
	}

	return trips, nil
}

// Get retrieves a trip by id.
func (s *PostgresTripStore) Get(ctx context.Context, id string) (*domain.Trip, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, getTripQuery, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTripNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get trip",
			slog.String("trip_id", id),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("trip", "get", "failed to query trip", MapError(err))
	}

	trip, err := decodeTrip(doc)
	if err != nil {
		return nil, store.NewStoreError("trip", "get", "stored document is invalid", err)
	}
	return trip, nil
}

// Update merges patch into the stored document inside a transaction. The id
// key is never changed by the patch.
func (s *PostgresTripStore) Update(ctx context.Context, id string, patch map[string]any) (*domain.Trip, error) {
	var updated *domain.Trip

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var doc []byte
		if err := tx.QueryRowContext(ctx, lockTripQuery, id).Scan(&doc); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrTripNotFound
			}
			return MapError(err)
		}

		merged, err := mergeDocument(doc, id, patch)
		if err != nil {
			return err
		}

		trip, err := decodeTrip(merged)
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		result, err := tx.ExecContext(ctx, updateTripQuery, id, string(merged), s.now().UTC())
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, store.ErrTripNotFound); err != nil {
			return err
		}

		updated = trip
		return nil
	})
	if err != nil {
		if store.IsNotFoundError(err) || errors.Is(err, store.ErrInvalidEntity) {
			return nil, err
		}
		return nil, store.NewStoreError("trip", "update", "failed to update trip", err)
	}

	return updated, nil
}

// Delete removes a trip by id.
func (s *PostgresTripStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, deleteTripQuery, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete trip",
			slog.String("trip_id", id),
			slog.String("error", err.Error()))
		return store.NewStoreError("trip", "delete", "failed to delete trip", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTripNotFound)
}

// Count returns the number of stored trips.
func (s *PostgresTripStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, countTripsQuery).Scan(&n); err != nil {
		return 0, store.NewStoreError("trip", "count", "failed to count trips", MapError(err))
	}
	return n, nil
}

// Ping verifies the database connection.
func (s *PostgresTripStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func decodeTrip(doc []byte) (*domain.Trip, error) {
	var trip domain.Trip
	if err := json.Unmarshal(doc, &trip); err != nil {
		return nil, fmt.Errorf("failed to decode trip document: %w", err)
	}
	return &trip, nil
}

// mergeDocument overlays the top-level keys of patch onto doc and pins id.
func mergeDocument(doc []byte, id string, patch map[string]any) ([]byte, error) {
	current := map[string]any{}
	if err := json.Unmarshal(doc, &current); err != nil {
		return nil, fmt.Errorf("failed to decode stored document: %w", err)
	}
	for k, v := range patch {
		current[k] = v
	}
	current["id"] = id

	merged, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode merged document: %v", store.ErrInvalidEntity, err)
	}
	return merged, nil
}

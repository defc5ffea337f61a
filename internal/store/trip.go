package store

import (
	"context"

	"github.com/phrazzld/trip-planner-api/internal/domain"
)

// TripStore defines the interface for itinerary persistence.
// Trips are stored as whole documents keyed by their id.
// Version: 1.0
type TripStore interface {
	// Insert stores a new trip and returns its id.
	// Returns ErrTripExists if a trip with the same id is already stored.
	Insert(ctx context.Context, trip *domain.Trip) (string, error)

	// List returns all stored trips, newest first.
	// Returns an empty slice if no trips are stored.
	List(ctx context.Context) ([]*domain.Trip, error)

	// Get retrieves a trip by its id.
	// Returns ErrTripNotFound if the trip does not exist.
	Get(ctx context.Context, id string) (*domain.Trip, error)

	// Update merges patch into the stored document and returns the result.
	// Top-level keys in patch replace those of the stored document.
	// Returns ErrTripNotFound if the trip does not exist.
	Update(ctx context.Context, id string, patch map[string]any) (*domain.Trip, error)

	// Delete removes a trip.
	// Returns ErrTripNotFound if the trip does not exist.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored trips.
	Count(ctx context.Context) (int64, error)
}

package generation

import (
	"context"

	"github.com/phrazzld/trip-planner-api/internal/domain"
)

// Generator defines the interface for generating trip itineraries.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
type Generator interface {
	// GenerateTrip creates an itinerary for the given request.
	//
	// Failures are returned as *Error values whose Kind describes the
	// failure category (see errors.go).
	GenerateTrip(ctx context.Context, req domain.GenerationRequest) (*domain.Trip, error)
}

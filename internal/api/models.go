package api

import "github.com/phrazzld/trip-planner-api/internal/domain"

// PlanTripRequest is the body of POST /api/trips.
type PlanTripRequest = domain.GenerationRequest

// PlanTripResponse is returned when a trip has been generated.
type PlanTripResponse struct {
	Success bool         `json:"success"`
	Trip    *domain.Trip `json:"trip"`

	// Persisted is false when storage was deferred to a background task.
	Persisted bool `json:"persisted"`
}

// MessageResponse carries a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/trip-planner-api/internal/api/shared"
	"github.com/phrazzld/trip-planner-api/internal/domain"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
	"github.com/phrazzld/trip-planner-api/internal/service"
)

// TripHandler handles trip-related HTTP requests.
type TripHandler struct {
	tripService service.TripService
	logger      *slog.Logger
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService service.TripService, logger *slog.Logger) *TripHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TripHandler{
		tripService: tripService,
		logger:      logger.With("component", "trip_handler"),
	}
}

// CreateTrip handles POST /api/trips.
// It validates the request, generates an itinerary and stores it.
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	w.Header().Set("Cache-Control", "no-store")

	var req PlanTripRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	req.Normalize()
	if err := shared.ValidateRequest(req); err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			log.Debug("trip request rejected", "field", vErr.Field)
		}
		respondWithMappedError(w, r, err)
		return
	}

	log.Info("generating trip",
		"destination", req.Destination,
		"start_date", req.StartDate,
		"end_date", req.EndDate)

	result, err := h.tripService.Plan(r.Context(), req)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PlanTripResponse{
		Success:   true,
		Trip:      result.Trip,
		Persisted: result.Persisted,
	})
}

// ListTrips handles GET /api/trips.
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.tripService.List(r.Context())
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, trips)
}

// GetTrip handles GET /api/trips/{id}.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	trip, err := h.tripService.Get(r.Context(), id)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, trip)
}

// UpdateTrip handles PUT /api/trips/{id}.
// The body is a partial document merged over the stored trip.
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	var patch map[string]any
	if err := shared.DecodeJSON(r, &patch); err != nil || patch == nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	trip, err := h.tripService.Update(r.Context(), id, patch)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, trip)
}

// DeleteTrip handles DELETE /api/trips/{id}.
func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	if err := h.tripService.Delete(r.Context(), id); err != nil {
		respondWithMappedError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Trip deleted successfully"})
}

// Preflight handles OPTIONS /api/trips.
func (h *TripHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

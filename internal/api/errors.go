package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/trip-planner-api/internal/domain"
	"github.com/phrazzld/trip-planner-api/internal/generation"
	"github.com/phrazzld/trip-planner-api/internal/service"
	"github.com/phrazzld/trip-planner-api/internal/store"
)

// ErrorInfo is the client-facing description of an error.
type ErrorInfo struct {
	Status  int
	Message string
	Details string
}

// generationErrors maps each generation failure kind to its response.
var generationErrors = map[generation.Kind]ErrorInfo{
	generation.KindInvalidRequest: {
		Status:  http.StatusBadRequest,
		Message: "Missing required fields",
	},
	generation.KindAuthFailure: {
		Status:  http.StatusUnauthorized,
		Message: "AI service authentication failed",
		Details: "Invalid or missing API key. Please check server configuration.",
	},
	generation.KindQuotaExceeded: {
		Status:  http.StatusTooManyRequests,
		Message: "AI service rate limit exceeded",
		Details: "The AI service is temporarily unavailable due to high demand. Please wait 1-2 minutes and try again.",
	},
	generation.KindTimeout: {
		Status:  http.StatusGatewayTimeout,
		Message: "Request timed out",
		Details: "Request took too long. Please try again",
	},
	generation.KindServerError: {
		Status:  http.StatusServiceUnavailable,
		Message: "AI service unavailable",
		Details: "Could not connect to AI service. Please try again.",
	},
	generation.KindMalformedEnvelope: {
		Status:  http.StatusInternalServerError,
		Message: "Invalid AI response format",
		Details: "AI returned invalid response. Please try again",
	},
	generation.KindInvalidPayload: {
		Status:  http.StatusInternalServerError,
		Message: "Invalid AI response format",
		Details: "AI returned invalid response. Please try again",
	},
	generation.KindUnknown: {
		Status:  http.StatusInternalServerError,
		Message: "Failed to generate trip",
	},
}

// DescribeError maps internal errors to an HTTP status and a safe message.
// Raw error text never reaches the client.
func DescribeError(err error) ErrorInfo {
	switch {
	case err == nil:
		return ErrorInfo{Status: http.StatusInternalServerError, Message: "An unexpected error occurred"}

	case errors.Is(err, domain.ErrMissingFields):
		return generationErrors[generation.KindInvalidRequest]

	case errors.Is(err, generation.ErrGenerationFailed):
		if info, ok := generationErrors[generation.KindOf(err)]; ok {
			return info
		}
		return generationErrors[generation.KindUnknown]

	case errors.Is(err, service.ErrTripNotFound),
		errors.Is(err, store.ErrTripNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Message: "Trip not found"}

	case errors.Is(err, domain.ErrImmutableID):
		return ErrorInfo{Status: http.StatusBadRequest, Message: "Cannot modify trip ID"}

	case errors.Is(err, domain.ErrInvalidID):
		return ErrorInfo{Status: http.StatusBadRequest, Message: "Invalid trip ID"}

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return ErrorInfo{Status: http.StatusBadRequest, Message: "Invalid trip data"}

	case errors.Is(err, service.ErrPersistenceUnavailable):
		return ErrorInfo{
			Status:  http.StatusServiceUnavailable,
			Message: "Failed to save trip",
			Details: "The trip was generated but could not be stored. Please try again.",
		}

	default:
		return ErrorInfo{Status: http.StatusInternalServerError, Message: "An unexpected error occurred"}
	}
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes.
func MapErrorToStatusCode(err error) int {
	return DescribeError(err).Status
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message.
func GetSafeErrorMessage(err error) string {
	return DescribeError(err).Message
}

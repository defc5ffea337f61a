package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/trip-planner-api/internal/api/shared"
	"github.com/phrazzld/trip-planner-api/internal/domain"
)

// getPathID extracts a trip id from the URL path parameters.
func getPathID(r *http.Request, paramName string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, paramName))
	if id == "" {
		return "", domain.NewValidationError(paramName, "is required", domain.ErrInvalidID)
	}
	return id, nil
}

// respondWithMappedError writes the client-facing form of err and logs the
// redacted original.
func respondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	info := DescribeError(err)

	var opts []shared.ResponseOption
	if info.Details != "" {
		opts = append(opts, shared.WithDetails(info.Details))
	}
	if info.Status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, info.Status, info.Message, err, opts...)
}

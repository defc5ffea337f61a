package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/trip-planner-api/internal/api/shared"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
	"github.com/phrazzld/trip-planner-api/internal/ratelimit"
)

// IdentityFunc derives the rate-limit key for a request.
type IdentityFunc func(r *http.Request) string

// RateLimit returns middleware that admits at most the limiter's quota of
// requests per client identity. Rejected requests get a 429 with a
// Retry-After header. When the limiter itself fails the request is admitted.
func RateLimit(limiter ratelimit.Limiter, identity IdentityFunc) func(http.Handler) http.Handler {
	if identity == nil {
		identity = ratelimit.ClientIdentity
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContextOrDefault(r.Context(), slog.Default())
			client := identity(r)

			decision, err := limiter.Allow(r.Context(), client)
			if err != nil {
				log.Error("rate limiter unavailable, admitting request",
					"client", client,
					"error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				shared.RespondWithError(w, r, http.StatusTooManyRequests, "Too many requests",
					shared.WithDetails(fmt.Sprintf(
						"Please wait %d seconds before trying again", decision.RetryAfterSeconds)),
					shared.WithRetryAfter(decision.RetryAfterSeconds))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

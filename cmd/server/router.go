package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/trip-planner-api/internal/api"
	apiMiddleware "github.com/phrazzld/trip-planner-api/internal/api/middleware"
	"github.com/phrazzld/trip-planner-api/internal/ratelimit"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	tripHandler := api.NewTripHandler(app.tripService, app.logger)
	healthHandler := api.NewHealthHandler(app.healthDeps(), app.logger)

	r.Route("/api/trips", func(r chi.Router) {
		// Only generation consumes model quota, so only it is rate limited.
		r.With(apiMiddleware.RateLimit(app.limiter, ratelimit.ClientIdentity)).
			Post("/", tripHandler.CreateTrip)
		r.Options("/", tripHandler.Preflight)
		r.Get("/", tripHandler.ListTrips)

		r.Get("/{id}", tripHandler.GetTrip)
		r.Put("/{id}", tripHandler.UpdateTrip)
		r.Delete("/{id}", tripHandler.DeleteTrip)
	})

	r.Get("/health", healthHandler.Health)

	return r
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/trip-planner-api/internal/api"
	"github.com/phrazzld/trip-planner-api/internal/config"
	"github.com/phrazzld/trip-planner-api/internal/generation"
	"github.com/phrazzld/trip-planner-api/internal/platform/gemini"
	"github.com/phrazzld/trip-planner-api/internal/platform/postgres"
	"github.com/phrazzld/trip-planner-api/internal/ratelimit"
	"github.com/phrazzld/trip-planner-api/internal/service"
	"github.com/phrazzld/trip-planner-api/internal/store"
	"github.com/phrazzld/trip-planner-api/internal/task"
)

// shutdownTimeout bounds graceful shutdown of the server and task runner.
const shutdownTimeout = 10 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Admission control for the generation endpoint
	limiter       ratelimit.Limiter
	limiterCloser io.Closer

	// Persistence
	tripStore store.TripStore
	dbPinger  api.Pinger

	// Generation
	transport *gemini.Transport
	generator generation.Generator

	// Task handling
	taskRunner *task.TaskRunner

	tripService service.TripService
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.limiter, app.limiterCloser, err = setupLimiter(ctx, cfg.RateLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up rate limiter: %w", err)
	}

	tripStore := postgres.NewPostgresTripStore(db, logger)
	app.tripStore = tripStore
	app.dbPinger = tripStore

	app.transport, err = gemini.NewTransport(ctx, logger.With("component", "gemini_transport"), cfg.LLM)
	if err != nil {
		app.closeLimiter()
		return nil, fmt.Errorf("failed to initialize Gemini transport: %w", err)
	}

	app.generator, err = generation.NewClient(app.transport, generation.ConfigFromLLM(cfg.LLM),
		generation.WithLogger(logger.With("component", "generation_client")))
	if err != nil {
		app.closeLimiter()
		return nil, fmt.Errorf("failed to initialize generation client: %w", err)
	}
	logger.Info("Generation client initialized", "model", cfg.LLM.ModelName)

	app.taskRunner = newTaskRunner(cfg.Task, logger)

	app.tripService, err = service.NewTripService(
		app.generator,
		app.tripStore,
		app.taskRunner,
		logger,
		service.WithPersistOptions(task.WithMaxAttempts(cfg.Task.MaxAttempts)),
	)
	if err != nil {
		app.closeLimiter()
		return nil, fmt.Errorf("failed to create trip service: %w", err)
	}

	app.taskRunner.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// setupLimiter builds the in-memory limiter, or a Redis-backed one when a
// Redis URL is configured.
func setupLimiter(
	ctx context.Context,
	cfg config.RateLimitConfig,
	logger *slog.Logger,
) (ratelimit.Limiter, io.Closer, error) {
	limits := ratelimit.Config{
		Window:         time.Duration(cfg.WindowSeconds) * time.Second,
		MaxRequests:    cfg.MaxRequests,
		SweepThreshold: cfg.SweepThreshold,
	}

	if cfg.RedisURL == "" {
		logger.Info("Using in-memory rate limiter",
			"window_seconds", cfg.WindowSeconds,
			"max_requests", cfg.MaxRequests)
		return ratelimit.NewSlidingWindow(limits), nil, nil
	}

	limiter, err := ratelimit.NewRedisSlidingWindowFromURL(cfg.RedisURL, limits)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := limiter.Ping(pingCtx); err != nil {
		_ = limiter.Close()
		return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	logger.Info("Using Redis rate limiter",
		"window_seconds", cfg.WindowSeconds,
		"max_requests", cfg.MaxRequests)
	return limiter, limiter, nil
}

// newTaskRunner creates the background task processor. The caller starts it.
func newTaskRunner(cfg config.TaskConfig, logger *slog.Logger) *task.TaskRunner {
	runner := task.NewTaskRunner(task.NewMemoryTaskStore(), task.TaskRunnerConfig{
		QueueSize:   cfg.QueueSize,
		WorkerCount: cfg.WorkerCount,
	}, logger)

	runner.SetErrorHandler(func(t task.Task, err error) {
		logger.Error("background task failed permanently",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
	})

	return runner
}

// healthDeps describes the dependencies probed by GET /health.
func (app *application) healthDeps() api.HealthDeps {
	deps := api.HealthDeps{
		HasGeminiKey:   app.config.LLM.GeminiAPIKey != "",
		HasDatabaseURL: app.config.Database.URL != "",
		Database:       app.dbPinger,
		Trips:          app.tripStore,
	}
	if app.transport != nil {
		deps.Model = app.transport
	}
	if app.taskRunner != nil {
		deps.Tasks = app.taskRunner
	}
	return deps
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup(ctx context.Context) {
	if app.taskRunner != nil {
		if err := app.taskRunner.Stop(ctx); err != nil {
			app.logger.Error("Task runner did not drain before shutdown", "error", err)
		}
	}

	app.closeLimiter()

	if app.db != nil {
		closeDB(app.db, app.logger)
	}

	app.logger.Info("Application shutdown completed")
}

func (app *application) closeLimiter() {
	if app.limiterCloser == nil {
		return
	}
	if err := app.limiterCloser.Close(); err != nil {
		app.logger.Error("Error closing rate limiter", "error", err)
	}
	app.limiterCloser = nil
}

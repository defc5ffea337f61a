package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/trip-planner-api/internal/api/shared"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
	"github.com/phrazzld/trip-planner-api/internal/redact"
)

// Health check statuses.
const (
	HealthOK    = "OK"
	HealthError = "ERROR"
)

// DefaultHealthCheckTimeout bounds each dependency probe.
const DefaultHealthCheckTimeout = 15 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TripCounter counts stored trips.
type TripCounter interface {
	Count(ctx context.Context) (int64, error)
}

// PendingCounter reports the number of unfinished background tasks.
type PendingCounter interface {
	Pending(ctx context.Context) (int, error)
}

// HealthDeps are the dependencies probed by the health endpoint. Model and
// Tasks are optional.
type HealthDeps struct {
	HasGeminiKey   bool
	HasDatabaseURL bool
	Database       Pinger
	Trips          TripCounter
	Model          Pinger
	Tasks          PendingCounter
	Timeout        time.Duration
}

// HealthCheck is the result of one probe.
type HealthCheck struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	TripCount *int64 `json:"tripCount,omitempty"`
	Pending   *int   `json:"pending,omitempty"`
}

// HealthVariables reports which required settings are present.
type HealthVariables struct {
	HasGeminiKey   bool `json:"hasGeminiKey"`
	HasDatabaseURL bool `json:"hasDatabaseUrl"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Timestamp     time.Time       `json:"timestamp"`
	Variables     HealthVariables `json:"variables"`
	Gemini        HealthCheck     `json:"gemini"`
	Database      HealthCheck     `json:"database"`
	GeminiAPITest *HealthCheck    `json:"gemini_api_test,omitempty"`
	Tasks         *HealthCheck    `json:"tasks,omitempty"`
}

// HealthHandler serves the health endpoint.
type HealthHandler struct {
	deps   HealthDeps
	now    func() time.Time
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(deps HealthDeps, logger *slog.Logger) *HealthHandler {
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultHealthCheckTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		deps:   deps,
		now:    time.Now,
		logger: logger.With("component", "health_handler"),
	}
}

// Health handles GET /health. It responds 503 when any probe fails.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	resp := HealthResponse{
		Timestamp: h.now().UTC(),
		Variables: HealthVariables{
			HasGeminiKey:   h.deps.HasGeminiKey,
			HasDatabaseURL: h.deps.HasDatabaseURL,
		},
		Gemini:   h.checkConfig(),
		Database: h.checkDatabase(ctx),
	}

	if h.deps.Model != nil {
		check := h.probe(ctx, h.deps.Model, "Gemini API is responding")
		resp.GeminiAPITest = &check
	}
	if h.deps.Tasks != nil {
		check := h.checkTasks(ctx)
		resp.Tasks = &check
	}

	status := http.StatusOK
	for _, check := range resp.checks() {
		if check.Status == HealthError {
			status = http.StatusServiceUnavailable
			log.Warn("health check failed", "message", check.Message)
		}
	}

	shared.RespondWithJSON(w, r, status, resp)
}

func (resp HealthResponse) checks() []HealthCheck {
	checks := []HealthCheck{resp.Gemini, resp.Database}
	if resp.GeminiAPITest != nil {
		checks = append(checks, *resp.GeminiAPITest)
	}
	if resp.Tasks != nil {
		checks = append(checks, *resp.Tasks)
	}
	return checks
}

func (h *HealthHandler) checkConfig() HealthCheck {
	if !h.deps.HasGeminiKey {
		return HealthCheck{Status: HealthError, Message: "Gemini API key is not configured"}
	}
	return HealthCheck{Status: HealthOK, Message: "Gemini API key is configured"}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	if h.deps.Database == nil || h.deps.Trips == nil {
		return HealthCheck{Status: HealthError, Message: "database is not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, h.deps.Timeout)
	defer cancel()

	if err := h.deps.Database.Ping(ctx); err != nil {
		return HealthCheck{Status: HealthError, Message: "database is unreachable"}
	}
	count, err := h.deps.Trips.Count(ctx)
	if err != nil {
		return HealthCheck{Status: HealthError, Message: "failed to count trips"}
	}
	return HealthCheck{Status: HealthOK, Message: "database connected", TripCount: &count}
}

func (h *HealthHandler) checkTasks(ctx context.Context) HealthCheck {
	pending, err := h.deps.Tasks.Pending(ctx)
	if err != nil {
		return HealthCheck{Status: HealthError, Message: "failed to read task state"}
	}
	return HealthCheck{Status: HealthOK, Message: "task runner active", Pending: &pending}
}

func (h *HealthHandler) probe(ctx context.Context, p Pinger, okMessage string) HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, h.deps.Timeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		h.logger.Debug("health probe failed", "error", redact.Error(err))
		return HealthCheck{Status: HealthError, Message: "Gemini API is not responding"}
	}
	return HealthCheck{Status: HealthOK, Message: okMessage}
}

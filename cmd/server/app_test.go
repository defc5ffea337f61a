package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/trip-planner-api/internal/config"
	"github.com/phrazzld/trip-planner-api/internal/mocks"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
	"github.com/phrazzld/trip-planner-api/internal/ratelimit"
	"github.com/phrazzld/trip-planner-api/internal/service"
	"github.com/phrazzld/trip-planner-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, LogLevel: "debug"},
		Database: config.DatabaseConfig{URL: "postgres://trips@localhost:5432/trips"},
		LLM:      config.LLMConfig{GeminiAPIKey: "test-key", ModelName: "gemini-2.5-flash"},
		RateLimit: config.RateLimitConfig{
			WindowSeconds:  60,
			MaxRequests:    2,
			SweepThreshold: 1000,
		},
		Task: config.TaskConfig{WorkerCount: 1, QueueSize: 10, MaxAttempts: 3},
	}
}

// newTestApplication assembles an application around in-memory fakes.
func newTestApplication(t *testing.T, gen *mocks.MockGenerator) (*application, *mocks.MockTripStore) {
	t.Helper()

	log, _ := logger.NewTestLogger(t)
	cfg := testConfig()
	trips := mocks.NewMockTripStore()

	limiter, closer, err := setupLimiter(context.Background(), cfg.RateLimit, log)
	require.NoError(t, err)
	assert.Nil(t, closer)

	runner := newTaskRunner(cfg.Task, log)
	svc, err := service.NewTripService(gen, trips, runner, log,
		service.WithPersistOptions(task.WithMaxAttempts(cfg.Task.MaxAttempts)))
	require.NoError(t, err)
	runner.Start()

	app := &application{
		config:      cfg,
		logger:      log,
		limiter:     limiter,
		tripStore:   trips,
		dbPinger:    pingFunc(func(ctx context.Context) error { return nil }),
		generator:   gen,
		taskRunner:  runner,
		tripService: svc,
	}
	t.Cleanup(func() { _ = runner.Stop(context.Background()) })
	return app, trips
}

func TestRouter_Routes(t *testing.T) {
	app, trips := newTestApplication(t, mocks.NewMockGeneratorWithTrip(mocks.SampleTrip()))
	router := app.setupRouter()

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	created := send(http.MethodPost, "/api/trips",
		`{"destination":"Lisbon","startDate":"2025-06-01","endDate":"2025-06-02","createdBy":"Ana"}`)
	require.Equal(t, http.StatusOK, created.Code, created.Body.String())
	assert.Equal(t, "1", created.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 1, trips.InsertCalls())

	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/trips", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/trips/trip-1", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodOptions, "/api/trips", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodPut, "/api/trips/trip-1", `{"notes":"x"}`).Code)
	assert.Equal(t, http.StatusOK, send(http.MethodDelete, "/api/trips/trip-1", "").Code)
	assert.Equal(t, http.StatusNotFound, send(http.MethodGet, "/api/trips/trip-1", "").Code)
	assert.Equal(t, http.StatusNotFound, send(http.MethodGet, "/api/unknown", "").Code)

	health := send(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, health.Code, health.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(health.Body.Bytes(), &body))
	assert.Contains(t, body, "tasks")
	assert.NotContains(t, body, "gemini_api_test")
}

func TestRouter_RateLimitsOnlyGeneration(t *testing.T) {
	app, _ := newTestApplication(t, mocks.NewMockGeneratorWithTrip(mocks.SampleTrip()))
	router := app.setupRouter()

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/trips",
			strings.NewReader(`{"destination":"Lisbon","startDate":"2025-06-01","endDate":"2025-06-02","createdBy":"Ana"}`))
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trips", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestSetupLimiter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	log, _ := logger.NewTestLogger(t)

	cfg := testConfig().RateLimit
	cfg.RedisURL = "redis://" + mr.Addr()

	limiter, closer, err := setupLimiter(context.Background(), cfg, log)
	require.NoError(t, err)
	require.NotNil(t, closer)
	defer closer.Close()

	_, ok := limiter.(*ratelimit.RedisSlidingWindow)
	assert.True(t, ok)

	decision, err := limiter.Allow(context.Background(), "198.51.100.4")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestSetupLimiter_RedisUnreachable(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	cfg := testConfig().RateLimit
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, _, err := setupLimiter(context.Background(), cfg, log)
	assert.Error(t, err)
}

func TestServe_GracefulShutdown(t *testing.T) {
	app, _ := newTestApplication(t, mocks.NewMockGeneratorWithTrip(mocks.SampleTrip()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, ln, app.setupRouter()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout):
		t.Fatal("server did not shut down")
	}
}

func TestMigrationCommand(t *testing.T) {
	cmd, args := migrationCommand(nil)
	assert.Equal(t, "up", cmd)
	assert.Empty(t, args)

	cmd, args = migrationCommand([]string{"down-to", "1"})
	assert.Equal(t, "down-to", cmd)
	assert.Equal(t, []string{"1"}, args)
}

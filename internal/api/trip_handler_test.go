package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/trip-planner-api/internal/api/middleware"
	"github.com/phrazzld/trip-planner-api/internal/domain"
	"github.com/phrazzld/trip-planner-api/internal/generation"
	"github.com/phrazzld/trip-planner-api/internal/mocks"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
	"github.com/phrazzld/trip-planner-api/internal/ratelimit"
	"github.com/phrazzld/trip-planner-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const parisItinerary = `{
  "title": "Paris in Spring",
  "destination": "Paris",
  "startDate": "2025-06-01",
  "endDate": "2025-06-03",
  "createdBy": "Alice",
  "participants": [{"name": "Alice"}],
  "days": [
    {"day": 1, "date": "2025-06-01", "location": "Le Marais", "activities": [{"time": "09:00 AM", "title": "Musée Picasso"}]},
    {"day": 2, "date": "2025-06-02", "location": "Louvre", "activities": [{"time": "10:00 AM", "title": "Louvre"}]},
    {"day": 3, "date": "2025-06-03", "location": "Montmartre", "activities": [{"time": "08:00 AM", "title": "Sacré-Cœur"}]}
  ],
  "notes": "Book the Louvre in advance",
  "budget": {"currency": "EUR", "estimated": 1200, "spent": 0}
}`

// transportFunc adapts a function to generation.Transport.
type transportFunc func(ctx context.Context, req generation.CompletionRequest) (*generation.Completion, error)

func (f transportFunc) Complete(ctx context.Context, req generation.CompletionRequest) (*generation.Completion, error) {
	return f(ctx, req)
}

type testServer struct {
	handler http.Handler
	trips   *mocks.MockTripStore
	runner  *mocks.TestifyMockTaskRunner
}

func newTestServer(t *testing.T, gen generation.Generator, limiter ratelimit.Limiter) *testServer {
	t.Helper()

	log, _ := logger.NewTestLogger(t)
	trips := mocks.NewMockTripStore()
	runner := &mocks.TestifyMockTaskRunner{}

	svc, err := service.NewTripService(gen, trips, runner, log)
	require.NoError(t, err)

	if limiter == nil {
		limiter = ratelimit.NewSlidingWindow(ratelimit.Config{})
	}

	h := NewTripHandler(svc, log)
	r := chi.NewRouter()
	r.Use(middleware.Trace(log))
	r.Route("/api/trips", func(r chi.Router) {
		r.With(middleware.RateLimit(limiter, nil)).Post("/", h.CreateTrip)
		r.Options("/", h.Preflight)
		r.Get("/", h.ListTrips)
		r.Get("/{id}", h.GetTrip)
		r.Put("/{id}", h.UpdateTrip)
		r.Delete("/{id}", h.DeleteTrip)
	})

	return &testServer{handler: r, trips: trips, runner: runner}
}

func newStubbedClient(t *testing.T, calls *atomic.Int32, text string, err error) *generation.Client {
	t.Helper()
	transport := transportFunc(func(ctx context.Context, req generation.CompletionRequest) (*generation.Completion, error) {
		calls.Add(1)
		if err != nil {
			return nil, err
		}
		return &generation.Completion{Text: text, FinishReason: "STOP"}, nil
	})

	client, cErr := generation.NewClient(transport, generation.Config{RequestTimeout: time.Second},
		generation.WithIDGenerator(func() string { return "trip-paris" }))
	require.NoError(t, cErr)
	return client
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:40000"
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateTrip_EndToEnd(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, newStubbedClient(t, &calls, "```json\n"+parisItinerary+"\n```", nil), nil)

	w := srv.do(t, http.MethodPost, "/api/trips",
		`{"destination":"Paris","startDate":"2025-06-01","endDate":"2025-06-03","createdBy":"Alice"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))

	var resp PlanTripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Persisted)
	require.NotNil(t, resp.Trip)
	assert.Len(t, resp.Trip.Days, 3)
	assert.Equal(t, "trip-paris", resp.Trip.ID)
	assert.False(t, resp.Trip.GeneratedAt.IsZero())

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, srv.trips.InsertCalls())
	assert.Equal(t, []string{"trip-paris"}, srv.trips.IDs())
}

func TestCreateTrip_MissingFieldsNeverCallsModel(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing createdBy", `{"destination":"Paris","startDate":"2025-06-01","endDate":"2025-06-03"}`},
		{"blank destination", `{"destination":"  ","startDate":"2025-06-01","endDate":"2025-06-03","createdBy":"Alice"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := newTestServer(t, newStubbedClient(t, &calls, parisItinerary, nil), nil)

			w := srv.do(t, http.MethodPost, "/api/trips", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Missing required fields", decodeBody(t, w)["error"])
			assert.Equal(t, int32(0), calls.Load())
			assert.Equal(t, 0, srv.trips.InsertCalls())
		})
	}
}

func TestCreateTrip_InvalidJSON(t *testing.T) {
	srv := newTestServer(t, mocks.NewMockGeneratorWithTrip(mocks.SampleTrip()), nil)

	w := srv.do(t, http.MethodPost, "/api/trips", `{"destination":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request format", decodeBody(t, w)["error"])
}

func TestCreateTrip_GenerationFailures(t *testing.T) {
	tests := []struct {
		name    string
		kind    generation.Kind
		status  int
		message string
		details string
	}{
		{"auth", generation.KindAuthFailure, http.StatusUnauthorized, "AI service authentication failed",
			"Invalid or missing API key. Please check server configuration."},
		{"quota", generation.KindQuotaExceeded, http.StatusTooManyRequests, "AI service rate limit exceeded",
			"The AI service is temporarily unavailable due to high demand. Please wait 1-2 minutes and try again."},
		{"timeout", generation.KindTimeout, http.StatusGatewayTimeout, "Request timed out",
			"Request took too long. Please try again"},
		{"server", generation.KindServerError, http.StatusServiceUnavailable, "AI service unavailable",
			"Could not connect to AI service. Please try again."},
		{"payload", generation.KindInvalidPayload, http.StatusInternalServerError, "Invalid AI response format",
			"AI returned invalid response. Please try again"},
		{"unknown", generation.KindUnknown, http.StatusInternalServerError, "Failed to generate trip", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, mocks.NewMockGeneratorWithKind(tt.kind), nil)

			w := srv.do(t, http.MethodPost, "/api/trips",
				`{"destination":"Paris","startDate":"2025-06-01","endDate":"2025-06-03","createdBy":"Alice"}`)

			assert.Equal(t, tt.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.message, body["error"])
			if tt.details == "" {
				assert.NotContains(t, body, "details")
			} else {
				assert.Equal(t, tt.details, body["details"])
			}
			assert.Equal(t, 0, srv.trips.InsertCalls())
		})
	}
}

func TestCreateTrip_AuthFailureFromTransport(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, newStubbedClient(t, &calls, "",
		&generation.TransportError{StatusCode: 401, Message: "API key not valid"}), nil)

	w := srv.do(t, http.MethodPost, "/api/trips",
		`{"destination":"Paris","startDate":"2025-06-01","endDate":"2025-06-03","createdBy":"Alice"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, int32(1), calls.Load())
	assert.NotContains(t, w.Body.String(), "API key not valid")
}

func TestCreateTrip_RateLimited(t *testing.T) {
	limiter := ratelimit.NewSlidingWindow(ratelimit.Config{MaxRequests: 1})
	srv := newTestServer(t, mocks.NewMockGeneratorWithTrip(mocks.SampleTrip()), limiter)
	body := `{"destination":"Lisbon","startDate":"2025-06-01","endDate":"2025-06-02","createdBy":"Ana"}`

	first := srv.do(t, http.MethodPost, "/api/trips", body)
	require.Equal(t, http.StatusOK, first.Code)

	second := srv.do(t, http.MethodPost, "/api/trips", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	resp := decodeBody(t, second)
	assert.Equal(t, "Too many requests", resp["error"])
	assert.Greater(t, resp["retryAfter"], float64(0))
	assert.Equal(t, 1, srv.trips.InsertCalls())
}

func TestCreateTrip_DeferredPersistence(t *testing.T) {
	srv := newTestServer(t, mocks.NewMockGeneratorWithTrip(mocks.SampleTrip()), nil)
	srv.trips.InsertFn = func(ctx context.Context, trip *domain.Trip) (string, error) {
		return "", errors.New("connection refused")
	}
	srv.runner.On("Submit", mock.Anything, mock.Anything).Return(nil)

	w := srv.do(t, http.MethodPost, "/api/trips",
		`{"destination":"Lisbon","startDate":"2025-06-01","endDate":"2025-06-02","createdBy":"Ana"}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["persisted"])
	srv.runner.AssertNumberOfCalls(t, "Submit", 1)
}

func TestCreateTrip_PersistenceUnavailable(t *testing.T) {
	srv := newTestServer(t, mocks.NewMockGeneratorWithTrip(mocks.SampleTrip()), nil)
	srv.trips.InsertFn = func(ctx context.Context, trip *domain.Trip) (string, error) {
		return "", errors.New("connection refused")
	}
	srv.runner.On("Submit", mock.Anything, mock.Anything).Return(errors.New("task queue is full"))

	w := srv.do(t, http.MethodPost, "/api/trips",
		`{"destination":"Lisbon","startDate":"2025-06-01","endDate":"2025-06-02","createdBy":"Ana"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Failed to save trip", decodeBody(t, w)["error"])
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, mocks.NewMockGeneratorWithTrip(nil), nil)

	w := srv.do(t, http.MethodOptions, "/api/trips", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestTripCRUD(t *testing.T) {
	srv := newTestServer(t, mocks.NewMockGeneratorWithTrip(nil), nil)
	_, err := srv.trips.Insert(context.Background(), mocks.SampleTrip())
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/trips", "")
		require.Equal(t, http.StatusOK, w.Code)
		var trips []domain.Trip
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trips))
		require.Len(t, trips, 1)
		assert.Equal(t, "trip-1", trips[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/trips/trip-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Lisbon", decodeBody(t, w)["destination"])
	})

	t.Run("get missing", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/trips/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Trip not found", decodeBody(t, w)["error"])
	})

	t.Run("update", func(t *testing.T) {
		w := srv.do(t, http.MethodPut, "/api/trips/trip-1", `{"title":"Lisbon long weekend"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Lisbon long weekend", decodeBody(t, w)["title"])
	})

	t.Run("update id change", func(t *testing.T) {
		w := srv.do(t, http.MethodPut, "/api/trips/trip-1", `{"id":"trip-2"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Cannot modify trip ID", decodeBody(t, w)["error"])
	})

	t.Run("update missing", func(t *testing.T) {
		w := srv.do(t, http.MethodPut, "/api/trips/nope", `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update invalid body", func(t *testing.T) {
		w := srv.do(t, http.MethodPut, "/api/trips/trip-1", `[1,2]`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := srv.do(t, http.MethodDelete, "/api/trips/trip-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Trip deleted successfully", decodeBody(t, w)["message"])
	})

	t.Run("delete missing", func(t *testing.T) {
		w := srv.do(t, http.MethodDelete, "/api/trips/trip-1", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Trip not found", decodeBody(t, w)["error"])
	})
}

package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/trip-planner-api/internal/domain"
	"github.com/phrazzld/trip-planner-api/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateTripFn allows test cases to mock the GenerateTrip behavior
	GenerateTripFn func(ctx context.Context, req domain.GenerationRequest) (*domain.Trip, error)

	// Default response values
	Trip *domain.Trip
	Err  error

	// Call tracking for verification
	GenerateTripCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times GenerateTrip was called
		Count int

		// Requests contains all requests passed to GenerateTrip calls
		Requests []domain.GenerationRequest
	}
}

var _ generation.Generator = (*MockGenerator)(nil)

// GenerateTrip implements the generation.Generator interface
func (m *MockGenerator) GenerateTrip(ctx context.Context, req domain.GenerationRequest) (*domain.Trip, error) {
	m.GenerateTripCalls.mu.Lock()
	m.GenerateTripCalls.Count++
	m.GenerateTripCalls.Requests = append(m.GenerateTripCalls.Requests, req)
	m.GenerateTripCalls.mu.Unlock()

	if m.GenerateTripFn != nil {
		return m.GenerateTripFn(ctx, req)
	}

	if m.Trip == nil || m.Err != nil {
		return nil, m.Err
	}
	trip := *m.Trip
	return &trip, nil
}

// CallCount returns the number of GenerateTrip calls.
func (m *MockGenerator) CallCount() int {
	m.GenerateTripCalls.mu.Lock()
	defer m.GenerateTripCalls.mu.Unlock()
	return m.GenerateTripCalls.Count
}

// NewMockGeneratorWithTrip creates a MockGenerator that returns a copy of trip
func NewMockGeneratorWithTrip(trip *domain.Trip) *MockGenerator {
	return &MockGenerator{Trip: trip}
}

// NewMockGeneratorWithError creates a MockGenerator that returns the specified error
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{Err: err}
}

// NewMockGeneratorWithKind creates a MockGenerator that fails with the given kind
func NewMockGeneratorWithKind(kind generation.Kind) *MockGenerator {
	return &MockGenerator{Err: generation.NewError(kind, "mock failure", nil)}
}

// SampleTrip returns a small, fully populated trip.
func SampleTrip() *domain.Trip {
	return &domain.Trip{
		ID:          "trip-1",
		Title:       "Trip to Lisbon",
		Destination: "Lisbon",
		StartDate:   "2025-06-01",
		EndDate:     "2025-06-02",
		CreatedBy:   "Ana",
		Participants: []domain.Participant{
			{Name: "Ana", Email: "traveler@example.com"},
		},
		Days: []domain.DayPlan{
			{Day: 1, Date: "2025-06-01", Location: "Alfama", Activities: []domain.Activity{
				{Time: "09:00 AM", Title: "Castelo de S. Jorge"},
			}},
			{Day: 2, Date: "2025-06-02", Location: "Belém", Activities: []domain.Activity{
				{Time: "10:00 AM", Title: "Jerónimos Monastery"},
			}},
		},
		Notes:  "Wear comfortable shoes",
		Budget: domain.Budget{Currency: "EUR", Estimated: 600},
	}
}

// Reset resets the call tracking state
func (m *MockGenerator) Reset() {
	m.GenerateTripCalls.mu.Lock()
	defer m.GenerateTripCalls.mu.Unlock()

	m.GenerateTripCalls.Count = 0
	m.GenerateTripCalls.Requests = nil
}

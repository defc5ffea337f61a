package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/phrazzld/trip-planner-api/internal/domain"
	"github.com/phrazzld/trip-planner-api/internal/store"
)

// MockTripStore implements store.TripStore for testing. Methods without a
// function override operate on an in-memory map.
type MockTripStore struct {
	InsertFn func(ctx context.Context, trip *domain.Trip) (string, error)
	ListFn   func(ctx context.Context) ([]*domain.Trip, error)
	GetFn    func(ctx context.Context, id string) (*domain.Trip, error)
	UpdateFn func(ctx context.Context, id string, patch map[string]any) (*domain.Trip, error)
	DeleteFn func(ctx context.Context, id string) error
	CountFn  func(ctx context.Context) (int64, error)

	mu          sync.Mutex
	trips       map[string]*domain.Trip
	order       []string
	insertCalls int
}

var _ store.TripStore = (*MockTripStore)(nil)

// NewMockTripStore creates an empty MockTripStore.
func NewMockTripStore() *MockTripStore {
	return &MockTripStore{trips: make(map[string]*domain.Trip)}
}

// InsertCalls returns how many times Insert was called.
func (m *MockTripStore) InsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertCalls
}

// Insert implements store.TripStore
func (m *MockTripStore) Insert(ctx context.Context, trip *domain.Trip) (string, error) {
	m.mu.Lock()
	m.insertCalls++
	m.mu.Unlock()

	if m.InsertFn != nil {
		return m.InsertFn(ctx, trip)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	if _, exists := m.trips[trip.ID]; exists {
		return "", store.ErrTripExists
	}
	stored := *trip
	m.trips[trip.ID] = &stored
	m.order = append(m.order, trip.ID)
	return trip.ID, nil
}

// List implements store.TripStore, newest first
func (m *MockTripStore) List(ctx context.Context) ([]*domain.Trip, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	trips := []*domain.Trip{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if t, ok := m.trips[m.order[i]]; ok {
			c := *t
			trips = append(trips, &c)
		}
	}
	return trips, nil
}

// Get implements store.TripStore
func (m *MockTripStore) Get(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, store.ErrTripNotFound
	}
	c := *t
	return &c, nil
}

// Update implements store.TripStore. The default behavior understands the
// title and notes keys only.
func (m *MockTripStore) Update(ctx context.Context, id string, patch map[string]any) (*domain.Trip, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, patch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, store.ErrTripNotFound
	}
	if v, ok := patch["title"].(string); ok {
		t.Title = v
	}
	if v, ok := patch["notes"].(string); ok {
		t.Notes = v
	}
	c := *t
	return &c, nil
}

// Delete implements store.TripStore
func (m *MockTripStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[id]; !ok {
		return store.ErrTripNotFound
	}
	delete(m.trips, id)
	return nil
}

// Count implements store.TripStore
func (m *MockTripStore) Count(ctx context.Context) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.trips)), nil
}

// IDs returns the stored trip ids in sorted order.
func (m *MockTripStore) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.trips))
	for id := range m.trips {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *MockTripStore) ensure() {
	if m.trips == nil {
		m.trips = make(map[string]*domain.Trip)
	}
}

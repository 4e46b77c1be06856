package engine_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tartampluch/hivoyage/internal/engine"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockTripAPI simulates the trip server using `testify/mock`.
type MockTripAPI struct {
	mock.Mock
}

func (m *MockTripAPI) SaveStop(ctx context.Context, tripID string, day int, f engine.StopFields) error {
	return m.Called(ctx, tripID, day, f).Error(0)
}

func (m *MockTripAPI) DeleteStop(ctx context.Context, tripID string, day int, f engine.StopFields) error {
	return m.Called(ctx, tripID, day, f).Error(0)
}

func (m *MockTripAPI) DeleteDay(ctx context.Context, tripID string, day int) error {
	return m.Called(ctx, tripID, day).Error(0)
}

func (m *MockTripAPI) SavePackingItem(ctx context.Context, tripID, name string, checked bool) error {
	return m.Called(ctx, tripID, name, checked).Error(0)
}

func (m *MockTripAPI) UpdatePackingItem(ctx context.Context, tripID, name string, checked bool, oldName string) error {
	return m.Called(ctx, tripID, name, checked, oldName).Error(0)
}

func (m *MockTripAPI) DeletePackingItem(ctx context.Context, tripID, name string) error {
	return m.Called(ctx, tripID, name).Error(0)
}

func (m *MockTripAPI) UpdatePackingItemStatus(ctx context.Context, tripID, name string, checked bool) error {
	return m.Called(ctx, tripID, name, checked).Error(0)
}

func (m *MockTripAPI) DeleteTrip(ctx context.Context, tripID string) error {
	return m.Called(ctx, tripID).Error(0)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

const testTripID = "42"

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newTestEditor returns an editor over an empty trip starting on July 1st, 2025.
func newTestEditor() (*engine.Editor, *MockTripAPI) {
	api := new(MockTripAPI)
	trip := &engine.Trip{
		ID:          testTripID,
		Destination: "Lisbon",
		Start:       date(2025, 7, 1),
		End:         date(2025, 7, 5),
	}
	return engine.NewEditor(api, trip), api
}

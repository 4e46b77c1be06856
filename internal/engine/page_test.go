package engine_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/hivoyage/internal/engine"
)

const tripPage = `<!DOCTYPE html>
<html>
<head>
  <meta name="_csrf" content="tok-123">
  <meta name="_csrf_header" content="X-CSRF-TOKEN">
</head>
<body>
  <div class="trip-info">
    <h1> Lisbon </h1>
    <h2 class="trip-header">Dates</h2>
    <p><i class="fa"></i><span>07/01 - 07/04</span></p>
  </div>
  <div id="itinerary">
    <div class="day-container" data-day="2">
      <ul class="stops">
        <li><div class="stop-item">
          <span class="stop-name">Tower</span>
          <span class="stop-address">Belem</span>
          <span class="stop-time">16:00</span>
        </div></li>
        <li><div class="stop-item">
          <span class="stop-name">Pasteis</span>
          <span class="stop-address">Rua de Belem 84</span>
          <span class="stop-time">11:00</span>
        </div></li>
      </ul>
    </div>
    <div class="day-container" data-day="1">
      <ul class="stops">
        <li><div class="stop-item"><span class="stop-name">Castle</span><span class="stop-address">Alfama</span><span class="stop-time"></span></div></li>
        <li><div class="stop-item editing"><input class="stop-name-input"></div></li>
      </ul>
    </div>
  </div>
  <ul id="packing-list">
    <li class="packing-item"><div class="packing-item-content"><input type="checkbox" checked><span class="item-name">Passport</span></div></li>
    <li class="packing-item"><div class="packing-item-content"><input type="checkbox"><span class="item-name"> Charger </span></div></li>
  </ul>
</body>
</html>`

func TestParseTripPage(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	trip, err := engine.ParseTripPage(strings.NewReader(tripPage), "42", now)
	require.NoError(t, err)

	assert.Equal(t, "42", trip.ID)
	assert.Equal(t, "Lisbon", trip.Destination)
	assert.Equal(t, engine.CSRFToken{Header: "X-CSRF-TOKEN", Token: "tok-123"}, trip.CSRF)
	assert.Equal(t, "07/01", trip.StartText)
	assert.Equal(t, "07/04", trip.EndText)
	assert.Equal(t, date(2025, 7, 1), trip.Start)
	assert.Equal(t, date(2025, 7, 4), trip.End)

	// Days are ordered by data-day, then renumbered and dated.
	require.Len(t, trip.Itinerary.Days, 2)
	d1, d2 := trip.Itinerary.Days[0], trip.Itinerary.Days[1]
	assert.Equal(t, 1, d1.Number)
	assert.Equal(t, date(2025, 7, 2), d2.Date)

	require.Len(t, d1.Stops, 1, "stops still being edited are skipped")
	assert.Equal(t, "Castle", d1.Stops[0].Name)
	assert.True(t, d1.Stops[0].Saved)

	require.Len(t, d2.Stops, 2)
	assert.Equal(t, "Pasteis", d2.Stops[0].Name, "stops are sorted on load")
	assert.Equal(t, "Rua de Belem 84", d2.Stops[0].Address)
	assert.NotEqual(t, d2.Stops[0].ID, d2.Stops[1].ID)

	require.Len(t, trip.Packing, 2)
	assert.Equal(t, "Passport", trip.Packing[0].Name)
	assert.True(t, trip.Packing[0].Checked)
	assert.Equal(t, "Charger", trip.Packing[1].Name)
	assert.False(t, trip.Packing[1].Checked)
	assert.Equal(t, "1/2 items packed", engine.PackingProgress(trip.Packing))
	assert.Equal(t, "2 days, 3 stops", engine.ItineraryProgress(trip.Itinerary))
}

func TestParseTripPage_ExplicitDatesWin(t *testing.T) {
	page := `<div class="trip-info" data-start-date="2024-07-01" data-end-date="2024-07-04">
	<h1>Porto</h1><h2 class="trip-header"></h2><p><span>07/01 - 07/04</span></p></div>`

	trip, err := engine.ParseTripPage(strings.NewReader(page), "7", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, date(2024, 7, 1), trip.Start)
	assert.Equal(t, date(2024, 7, 4), trip.End)
}

func TestParseTripPage_Minimal(t *testing.T) {
	trip, err := engine.ParseTripPage(strings.NewReader("<html><body></body></html>"), "1", time.Now())
	require.NoError(t, err)
	assert.Empty(t, trip.Destination)
	assert.True(t, trip.Start.IsZero())
	assert.False(t, trip.CSRF.Present(), "a missing token is tolerated")
	assert.Equal(t, "0 days, 0 stops", engine.ItineraryProgress(trip.Itinerary))
}

func TestTripIDFromURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://hivoyage.example/user/trip/42", "42", false},
		{"https://hivoyage.example/user/trip/42/", "42", false},
		{"/user/trip/abc?tab=packing", "abc", false},
		{"https://hivoyage.example", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := engine.TripIDFromURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

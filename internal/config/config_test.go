package config_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/hivoyage/internal/config"
)

// TestConstants_Integrity ensures critical constants are not empty or malformed.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"ICalVersion", config.ICalVersion},
		{"ICalProdid", config.ICalProdid},
		{"RouteTripPrefix", config.RouteTripPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "Critical constant %s should not be empty", tt.name)
		})
	}
}

// TestProgressFormats pins the exact wording of the progress summaries.
func TestProgressFormats(t *testing.T) {
	assert.Equal(t, "1 days, 0 stops", fmt.Sprintf(config.FormatItineraryProgress, 1, 0))
	assert.Equal(t, "0/0 items packed", fmt.Sprintf(config.FormatPackingProgress, 0, 0))
}

// TestUserAgent_Format ensures the UA string follows the standard format.
func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(config.UserAgent, "HiVoyage/"), "UserAgent must start with AppName/")
}

// TestTimeoutsAndLimits ensures that operational constraints are reasonable.
func TestTimeoutsAndLimits(t *testing.T) {
	t.Parallel()

	assert.Greater(t, config.HTTPTimeout, 0*time.Second, "HTTPTimeout must be positive")
	assert.LessOrEqual(t, config.HTTPTimeout, 2*time.Minute, "HTTPTimeout should not be excessively long")
	assert.Greater(t, config.ShutdownTimeout, 0*time.Second, "ShutdownTimeout must be positive")

	assert.Greater(t, config.MaxHTTPResponseSize, 0, "MaxHTTPResponseSize must be positive")
	assert.Less(t, config.MaxErrorBodySize, config.MaxHTTPResponseSize)
	assert.Greater(t, config.TransitDurationFactor, 1.0, "Transit should never beat driving on raw duration")
}

// TestEndpoints pins the routes and action names the trip server expects.
func TestEndpoints(t *testing.T) {
	tests := []struct {
		name, got, want string
	}{
		{"Login", config.RouteLogin, "/login"},
		{"Trip page", config.RouteTripPrefix + "42", "/user/trip/42"},
		{"Summary", config.RouteSummary, "/api/trips/summary"},
		{"Coordinates", config.RouteUpdCoords, "/api/trips/update-coordinates"},
		{"Save stop", config.ActionSaveItinerary, "saveItineraryAjax"},
		{"Delete stop", config.ActionDeleteItinerary, "deleteItinerary"},
		{"Packing status", config.ActionPackingStatus, "updatePackingItemStatus"},
		{"Feed", config.RouteFeed, "/itinerary.ics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

// TestPortRange keeps the default feed port usable.
func TestPortRange(t *testing.T) {
	assert.Less(t, config.MinPort, config.MaxPort)
	assert.Equal(t, 65535, config.MaxPort)
	assert.NotEmpty(t, config.DefaultPort)
}

// TestSupportedLanguages ensures the default language is offered.
func TestSupportedLanguages(t *testing.T) {
	assert.Contains(t, config.SupportedLanguages, config.DefaultLanguage)
}

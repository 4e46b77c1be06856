package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tartampluch/hivoyage/internal/config"
)

// Geocoder turns a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (LatLng, error)
}

// Router estimates a route through ordered waypoints for one travel mode.
type Router interface {
	Route(ctx context.Context, mode Mode, waypoints []LatLng) (RouteOption, error)
}

// -----------------------------------------------------------------------------
// Nominatim
// -----------------------------------------------------------------------------

// NominatimGeocoder queries an OpenStreetMap Nominatim instance.
type NominatimGeocoder struct {
	BaseURL string
	Client  *http.Client
}

// NewNominatimGeocoder creates a geocoder with configured timeouts.
func NewNominatimGeocoder(baseURL string) *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: config.HTTPTimeout},
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the first search result for query.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (LatLng, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", config.NominatimFormat)
	q.Set("limit", config.NominatimLimit)

	var places []nominatimPlace
	if err := getJSON(ctx, g.Client, g.BaseURL+config.NominatimSearchPath+"?"+q.Encode(), &places); err != nil {
		return LatLng{}, fmt.Errorf("%s: %w", config.ErrGeocode, err)
	}
	if len(places) == 0 {
		return LatLng{}, fmt.Errorf("%s: %q", config.ErrNoGeocodeResult, query)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("%s: %w", config.ErrGeocode, err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("%s: %w", config.ErrGeocode, err)
	}
	return LatLng{Lat: lat, Lng: lng}, nil
}

// -----------------------------------------------------------------------------
// OSRM
// -----------------------------------------------------------------------------

// OSRMRouter queries an OSRM routing service.
// Transit has no OSRM profile; it is derived from the driving route.
type OSRMRouter struct {
	BaseURL string
	Client  *http.Client
}

// NewOSRMRouter creates a router with configured timeouts.
func NewOSRMRouter(baseURL string) *OSRMRouter {
	return &OSRMRouter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: config.HTTPTimeout},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

func profileFor(mode Mode) (string, bool) {
	switch mode {
	case ModeDrive, ModeTransit:
		return config.ProfileDriving, true
	case ModeWalk:
		return config.ProfileWalking, true
	case ModeBike:
		return config.ProfileCycling, true
	default:
		return "", false
	}
}

// Route asks OSRM for the fastest route through the waypoints in order.
func (r *OSRMRouter) Route(ctx context.Context, mode Mode, waypoints []LatLng) (RouteOption, error) {
	if len(waypoints) < 2 {
		return RouteOption{}, errors.New(config.ErrTooFewWaypoints)
	}
	profile, ok := profileFor(mode)
	if !ok {
		return RouteOption{}, fmt.Errorf("%s: %q", config.ErrModeUnsupported, mode)
	}

	coords := make([]string, len(waypoints))
	for i, p := range waypoints {
		// OSRM expects lon,lat.
		coords[i] = strconv.FormatFloat(p.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
	}
	target := r.BaseURL + config.OSRMRoutePath + profile + "/" + strings.Join(coords, ";") + "?overview=" + config.OSRMOverview

	var resp osrmResponse
	if err := getJSON(ctx, r.Client, target, &resp); err != nil {
		return RouteOption{}, fmt.Errorf("%s: %w", config.ErrRoute, err)
	}
	if resp.Code != config.OSRMCodeOK || len(resp.Routes) == 0 {
		return RouteOption{}, fmt.Errorf("%s: %s", config.ErrRoute, resp.Code)
	}
	return newRouteOption(mode, resp.Routes[0].Duration, resp.Routes[0].Distance), nil
}

// getJSON performs a GET with the application User-Agent and decodes the body.
func getJSON(ctx context.Context, client *http.Client, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.MimeJSON)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		slog.Debug(config.MsgRequestFailed,
			slog.String(config.LogKeyComponent, config.CompMap),
			slog.Int(config.LogKeyStatus, resp.StatusCode))
		return fmt.Errorf("%s: %d", config.ErrServerStatus, resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, config.MaxHTTPResponseSize)).Decode(out)
}

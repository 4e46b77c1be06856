package mapping

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
	"golang.org/x/sync/errgroup"
)

// geocodeParallelism bounds the concurrent geocoding requests of one day.
const geocodeParallelism = 4

// View is what a map renders: markers, the viewport and the route options.
type View struct {
	Markers []Marker
	Bounds  Bounds
	Routes  []RouteOption
}

// Best returns the fastest route option of the view, if any.
func (v View) Best() (RouteOption, bool) {
	return Best(v.Routes)
}

// Session is the state of one map: its providers and the current view.
// Every method is safe for concurrent use; independent sessions share nothing.
type Session struct {
	Geocoder Geocoder
	Router   Router
	Modes    []Mode

	mu   sync.Mutex
	view View
	gen  uint64
}

// NewSession creates a session offering every travel mode.
func NewSession(g Geocoder, r Router) *Session {
	return &Session{Geocoder: g, Router: r, Modes: AllModes}
}

// View returns the current view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// begin starts a focus request. Only the latest request may replace the view.
func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// set keeps v unless a newer focus request started meanwhile.
func (s *Session) set(gen uint64, v View) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		slog.Debug(config.MsgMapStale,
			slog.String(config.LogKeyComponent, config.CompMap),
			slog.Int(config.LogKeyMarkers, len(v.Markers)))
		return v
	}
	s.view = v
	return v
}

// FocusDestination centres the map on the trip destination.
// A failed lookup yields an empty view.
func (s *Session) FocusDestination(ctx context.Context, destination string) View {
	gen := s.begin()
	return s.set(gen, s.destination(ctx, destination))
}

func (s *Session) destination(ctx context.Context, destination string) View {
	log := slog.With(slog.String(config.LogKeyComponent, config.CompMap))

	var v View
	if destination != "" {
		p, err := s.Geocoder.Geocode(ctx, destination)
		if err != nil {
			log.Warn(config.MsgGeocodeSkipped,
				slog.String(config.LogKeyQuery, destination),
				slog.Any(config.LogKeyError, err))
		} else {
			v.Markers = []Marker{{Position: p, Title: destination}}
			v.Bounds = BoundsOf(v.Markers)
		}
	}

	log.Debug(config.MsgMapFocused, slog.Int(config.LogKeyMarkers, len(v.Markers)))
	return v
}

// FocusDay places a marker on every stop that can be geocoded, fits the
// viewport to them and routes through them in order for each mode.
// A day without stops falls back to the destination. Failed lookups and
// routes are logged and skipped. A result overtaken by a later focus
// request is returned but not kept as the session view.
func (s *Session) FocusDay(ctx context.Context, destination string, stops []engine.StopFields) View {
	gen := s.begin()
	if len(stops) == 0 {
		return s.set(gen, s.destination(ctx, destination))
	}
	log := slog.With(slog.String(config.LogKeyComponent, config.CompMap))

	// 1. Geocode every stop concurrently and join.
	located := make([]*Marker, len(stops))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(geocodeParallelism)
	for i, st := range stops {
		i, st := i, st
		g.Go(func() error {
			p, err := s.Geocoder.Geocode(gctx, st.Address)
			if err != nil {
				log.Warn(config.MsgGeocodeSkipped,
					slog.String(config.LogKeyQuery, st.Address),
					slog.Any(config.LogKeyError, err))
				return nil
			}
			located[i] = &Marker{Position: p, Title: st.Name, Detail: st.Address}
			return nil
		})
	}
	_ = g.Wait()

	var v View
	for _, m := range located {
		if m != nil {
			v.Markers = append(v.Markers, *m)
		}
	}
	if len(v.Markers) == 0 {
		return s.set(gen, s.destination(ctx, destination))
	}
	v.Bounds = BoundsOf(v.Markers)

	// 2. Route through the located stops.
	if len(v.Markers) >= 2 && s.Router != nil {
		waypoints := make([]LatLng, len(v.Markers))
		for i, m := range v.Markers {
			waypoints[i] = m.Position
		}
		v.Routes = s.routes(ctx, waypoints)
	}

	log.Debug(config.MsgMapFocused,
		slog.Int(config.LogKeyMarkers, len(v.Markers)),
		slog.Int(config.LogKeyCount, len(v.Routes)))
	return s.set(gen, v)
}

// routes requests every mode concurrently, keeping the display order.
func (s *Session) routes(ctx context.Context, waypoints []LatLng) []RouteOption {
	results := make([]*RouteOption, len(s.Modes))
	var g errgroup.Group
	for i, mode := range s.Modes {
		i, mode := i, mode
		g.Go(func() error {
			opt, err := s.Router.Route(ctx, mode, waypoints)
			if err != nil {
				slog.Warn(config.MsgRouteSkipped,
					slog.String(config.LogKeyComponent, config.CompMap),
					slog.String(config.LogKeyMode, string(mode)),
					slog.Any(config.LogKeyError, err))
				return nil
			}
			results[i] = &opt
			return nil
		})
	}
	_ = g.Wait()

	var out []RouteOption
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

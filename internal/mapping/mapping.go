// Package mapping projects the itinerary onto a map: geocoded markers,
// viewport bounds and routes between the stops of a day.
package mapping

import (
	"fmt"
	"math"
	"time"

	"github.com/tartampluch/hivoyage/internal/config"
)

// LatLng is a WGS84 coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate is finite, in range and not the
// (0,0) placeholder the server stores for trips it could not geocode.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	if p.Lat == 0 || p.Lng == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Bounds is a lat/lng rectangle. The zero value is empty.
type Bounds struct {
	SouthWest LatLng
	NorthEast LatLng
	set       bool
}

// Empty reports whether no point was ever added.
func (b Bounds) Empty() bool {
	return !b.set
}

// Extend returns the smallest bounds containing b and p.
func (b Bounds) Extend(p LatLng) Bounds {
	if !b.set {
		return Bounds{SouthWest: p, NorthEast: p, set: true}
	}
	b.SouthWest.Lat = math.Min(b.SouthWest.Lat, p.Lat)
	b.SouthWest.Lng = math.Min(b.SouthWest.Lng, p.Lng)
	b.NorthEast.Lat = math.Max(b.NorthEast.Lat, p.Lat)
	b.NorthEast.Lng = math.Max(b.NorthEast.Lng, p.Lng)
	return b
}

// Pad grows the bounds by ratio of their span on every side.
func (b Bounds) Pad(ratio float64) Bounds {
	if !b.set {
		return b
	}
	dLat := (b.NorthEast.Lat - b.SouthWest.Lat) * ratio
	dLng := (b.NorthEast.Lng - b.SouthWest.Lng) * ratio
	b.SouthWest.Lat -= dLat
	b.SouthWest.Lng -= dLng
	b.NorthEast.Lat += dLat
	b.NorthEast.Lng += dLng
	return b
}

// Center is the midpoint of the bounds.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// minViewSpan keeps a single-marker viewport from collapsing to a point.
const minViewSpan = 0.01

// ViewURL returns an OpenStreetMap link showing the bounds.
func (b Bounds) ViewURL() string {
	if !b.set {
		return ""
	}
	v := b
	if v.NorthEast.Lat-v.SouthWest.Lat < minViewSpan {
		c := v.Center().Lat
		v.SouthWest.Lat, v.NorthEast.Lat = c-minViewSpan/2, c+minViewSpan/2
	}
	if v.NorthEast.Lng-v.SouthWest.Lng < minViewSpan {
		c := v.Center().Lng
		v.SouthWest.Lng, v.NorthEast.Lng = c-minViewSpan/2, c+minViewSpan/2
	}
	return fmt.Sprintf(config.OSMViewURL, v.SouthWest.Lat, v.SouthWest.Lng, v.NorthEast.Lat, v.NorthEast.Lng)
}

// Marker is a labelled point with popup text.
type Marker struct {
	Position LatLng
	Title    string
	Detail   string
}

// BoundsOf returns the bounds enclosing every marker.
func BoundsOf(markers []Marker) Bounds {
	var b Bounds
	for _, m := range markers {
		b = b.Extend(m.Position)
	}
	return b
}

// Mode is a travel mode offered for a route.
type Mode string

const (
	ModeDrive   Mode = "drive"
	ModeWalk    Mode = "walk"
	ModeBike    Mode = "bike"
	ModeTransit Mode = "transit"
)

// AllModes lists the modes in display order.
var AllModes = []Mode{ModeDrive, ModeWalk, ModeBike, ModeTransit}

// RouteOption is one travel mode's estimate along the waypoints.
type RouteOption struct {
	Mode     Mode
	Duration time.Duration

	// Distance is in kilometres.
	Distance float64

	// Speed is the average speed in km/h.
	Speed float64

	// Cost is an estimate in the trip's currency units.
	Cost float64
}

func newRouteOption(mode Mode, seconds, meters float64) RouteOption {
	opt := RouteOption{
		Mode:     mode,
		Duration: time.Duration(seconds * float64(time.Second)),
		Distance: meters / 1000,
	}
	if mode == ModeTransit {
		opt.Duration = time.Duration(float64(opt.Duration)*config.TransitDurationFactor) + config.TransitWait
	}
	if hours := opt.Duration.Hours(); hours > 0 {
		opt.Speed = opt.Distance / hours
	}
	switch mode {
	case ModeDrive:
		opt.Cost = opt.Distance * config.CostPerKmDrive
	case ModeTransit:
		opt.Cost = config.CostBaseTransit + opt.Distance*config.CostPerKmTransit
	}
	return opt
}

// Best returns the option with the shortest duration.
// The first one wins a tie. ok is false for an empty list.
func Best(options []RouteOption) (best RouteOption, ok bool) {
	for i, o := range options {
		if i == 0 || o.Duration < best.Duration {
			best = o
		}
	}
	return best, len(options) > 0
}

package mapping

import (
	"context"
	"log/slog"
	"math"

	"github.com/tartampluch/hivoyage/internal/config"
	"github.com/tartampluch/hivoyage/internal/engine"
)

// SummarySource feeds the trips overview.
type SummarySource interface {
	UpdateCoordinates(ctx context.Context) error
	TripSummaries(ctx context.Context) ([]engine.TripSummary, error)
}

// Cluster groups nearby markers.
type Cluster struct {
	Center  LatLng
	Markers []Marker
}

// OverviewView is the map of every trip of the user.
type OverviewView struct {
	Markers  []Marker
	Clusters []Cluster
	Bounds   Bounds
}

// Overview builds the trips overview. Refreshing the server-side
// coordinates is best-effort; only a failure to read the summaries is returned.
func Overview(ctx context.Context, src SummarySource) (OverviewView, error) {
	log := slog.With(slog.String(config.LogKeyComponent, config.CompMap))

	if err := src.UpdateCoordinates(ctx); err != nil {
		log.Warn(config.MsgCoordsFailed, slog.Any(config.LogKeyError, err))
	}

	sums, err := src.TripSummaries(ctx)
	if err != nil {
		return OverviewView{}, err
	}

	var v OverviewView
	for _, s := range sums {
		if s.Latitude == nil || s.Longitude == nil {
			log.Debug(config.MsgInvalidCoords, slog.String(config.LogKeyName, s.Destination))
			continue
		}
		p := LatLng{Lat: *s.Latitude, Lng: *s.Longitude}
		if !p.Valid() {
			log.Debug(config.MsgInvalidCoords, slog.String(config.LogKeyName, s.Destination))
			continue
		}
		v.Markers = append(v.Markers, Marker{
			Position: p,
			Title:    s.Destination,
			Detail:   s.StartDate + config.TripDateSeparator + s.EndDate,
		})
	}

	v.Clusters = ClusterMarkers(v.Markers, config.ClusterRadiusDeg)
	v.Bounds = BoundsOf(v.Markers).Pad(config.BoundsPadRatio)
	return v, nil
}

// ClusterMarkers greedily assigns each marker to the first cluster whose
// centre lies within radius degrees, or opens a new cluster.
// Centres are the running mean of their members.
func ClusterMarkers(markers []Marker, radius float64) []Cluster {
	var clusters []Cluster
	for _, m := range markers {
		placed := false
		for i := range clusters {
			c := &clusters[i]
			if distance(c.Center, m.Position) <= radius {
				n := float64(len(c.Markers))
				c.Center.Lat = (c.Center.Lat*n + m.Position.Lat) / (n + 1)
				c.Center.Lng = (c.Center.Lng*n + m.Position.Lng) / (n + 1)
				c.Markers = append(c.Markers, m)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, Cluster{Center: m.Position, Markers: []Marker{m}})
		}
	}
	return clusters
}

func distance(a, b LatLng) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

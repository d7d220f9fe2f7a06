package routing

import (
	"context"
	"errors"
)

var (
	// ErrNoRoute means the provider answered but found no path.
	ErrNoRoute = errors.New("no route found")
	// ErrUnavailable means the provider could not be reached or is not
	// configured. Callers degrade: distances stay known (haversine),
	// only the road geometry is missing.
	ErrUnavailable = errors.New("routing provider unavailable")
)

// Route is a road-network path between two coordinates.
type Route struct {
	// Path is an ordered list of [lat, lon] pairs.
	Path            [][2]float64 `json:"path"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
}

// Provider computes road-network routes. Dispatch math never depends
// on it; it only serves route geometry to callers that want it.
type Provider interface {
	Route(ctx context.Context, startLat, startLon, endLat, endLon float64) (*Route, error)
}

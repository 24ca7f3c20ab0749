// Package network defines the road-network contract consumed by dispatching.
package network

import (
	"errors"
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

var (
	// ErrUnknownLocation is returned for a location absent from the network.
	ErrUnknownLocation = errors.New("unknown location")
	// ErrUnreachable is returned when no path exists between two locations.
	ErrUnreachable = errors.New("location unreachable")
)

// Oracle answers travel-time queries on the road network. Implementations
// must be deterministic and safe for concurrent use during a cycle.
type Oracle interface {
	// TravelTime returns the shortest travel time from a to b.
	TravelTime(a, b model.Location) (time.Duration, error)
	// RouteThrough returns the time to visit locs in order.
	RouteThrough(locs []model.Location) (time.Duration, error)
	// ShortestPath returns the nodes of a shortest path from a to b, both included.
	ShortestPath(a, b model.Location) ([]model.Location, error)
}

// SumLegs implements RouteThrough on top of TravelTime.
func SumLegs(o Oracle, locs []model.Location) (time.Duration, error) {
	var total time.Duration
	for i := 1; i < len(locs); i++ {
		d, err := o.TravelTime(locs[i-1], locs[i])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

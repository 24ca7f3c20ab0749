package model

import (
	"fmt"
	"time"
)

// StopKind distinguishes pickups from dropoffs.
type StopKind int

const (
	Pickup StopKind = iota
	Dropoff
)

func (k StopKind) String() string {
	if k == Pickup {
		return "pickup"
	}
	return "dropoff"
}

// Stop is a pickup or dropoff of a single request.
type Stop struct {
	RequestID int64
	Location  Location
	Kind      StopKind
	// Deadline is the latest admissible arrival at the stop.
	Deadline time.Time
	// Earliest is the time before which the stop cannot be served.
	Earliest time.Time
	// Ideal is when a dropoff would happen on a direct ride started at
	// creation. Zero for pickups and when the direct time is unknown.
	Ideal time.Time
}

// PickupStop builds the boarding stop of r.
func PickupStop(r Request) Stop {
	return Stop{RequestID: r.ID, Location: r.Origin, Kind: Pickup, Deadline: r.LatestPickup(), Earliest: r.CreatedAt}
}

// DropoffStop builds the alighting stop of r under the given delay bound.
func DropoffStop(r Request, bound time.Duration) Stop {
	s := Stop{RequestID: r.ID, Location: r.Destination, Kind: Dropoff, Deadline: r.LatestDropoff(bound)}
	if r.DirectTime > 0 {
		s.Ideal = r.CreatedAt.Add(r.DirectTime)
	}
	return s
}

// Route is an ordered sequence of stops and the time needed to serve them.
type Route struct {
	Stops []Stop
	Cost  time.Duration
}

// Clone returns a copy with its own stop slice.
func (r Route) Clone() Route {
	return Route{Stops: append([]Stop(nil), r.Stops...), Cost: r.Cost}
}

// Requests returns the distinct request IDs in the order they first appear.
func (r Route) Requests() []int64 {
	seen := make(map[int64]bool, len(r.Stops))
	var ids []int64
	for _, s := range r.Stops {
		if !seen[s.RequestID] {
			seen[s.RequestID] = true
			ids = append(ids, s.RequestID)
		}
	}
	return ids
}

// MaxLoad returns the highest onboard count reached along the route.
func (r Route) MaxLoad(initial int) int {
	load, peak := initial, initial
	for _, s := range r.Stops {
		if s.Kind == Pickup {
			load++
		} else {
			load--
		}
		if load > peak {
			peak = load
		}
	}
	return peak
}

// Validate checks ordering and capacity. onboard lists the requests already
// in the vehicle; their dropoffs may appear without a pickup.
func (r Route) Validate(initial, capacity int, onboard []int64) error {
	picked := make(map[int64]bool, len(onboard))
	for _, id := range onboard {
		picked[id] = true
	}
	dropped := make(map[int64]bool)
	load := initial
	for i, s := range r.Stops {
		switch s.Kind {
		case Pickup:
			if picked[s.RequestID] {
				return fmt.Errorf("stop %d: request %d picked up twice", i, s.RequestID)
			}
			picked[s.RequestID] = true
			load++
		case Dropoff:
			if !picked[s.RequestID] {
				return fmt.Errorf("stop %d: request %d dropped before pickup", i, s.RequestID)
			}
			if dropped[s.RequestID] {
				return fmt.Errorf("stop %d: request %d dropped twice", i, s.RequestID)
			}
			dropped[s.RequestID] = true
			load--
		}
		if load > capacity {
			return fmt.Errorf("stop %d: load %d exceeds capacity %d", i, load, capacity)
		}
	}
	return nil
}

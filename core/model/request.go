package model

import "time"

// Location is an opaque node identifier in the road network.
type Location int64

// RequestStatus tracks a request through its lifecycle.
type RequestStatus int

const (
	StatusWaiting RequestStatus = iota
	StatusAssigned
	StatusPickedUp
	StatusCompleted
	StatusRejected
)

// String returns a human-readable representation of the status.
func (s RequestStatus) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusAssigned:
		return "assigned"
	case StatusPickedUp:
		return "picked_up"
	case StatusCompleted:
		return "completed"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Request is a ride request released by the simulation.
type Request struct {
	ID          int64
	Origin      Location
	Destination Location
	CreatedAt   time.Time
	MaxWait     time.Duration // latest pickup is CreatedAt + MaxWait
	MaxDelay    time.Duration // additional time tolerated versus direct travel

	// DirectTime is the unshared travel time from Origin to Destination.
	// A zero value is filled from the network at the start of a cycle.
	DirectTime time.Duration
	// Priority weights the rejection penalty. Zero is treated as 1.
	Priority float64

	Status          RequestStatus
	AssignedVehicle int64
	PickedUpAt      time.Time
	DroppedOffAt    time.Time
}

// LatestPickup is the last admissible boarding time.
func (r Request) LatestPickup() time.Time {
	return r.CreatedAt.Add(r.MaxWait)
}

// LatestDropoff is the last admissible alighting time given the delay bound.
func (r Request) LatestDropoff(bound time.Duration) time.Time {
	return r.CreatedAt.Add(r.DirectTime + bound)
}

// Weight returns the priority weight used in the objective.
func (r Request) Weight() float64 {
	if r.Priority <= 0 {
		return 1
	}
	return r.Priority
}

// Active reports whether the request still takes part in dispatching.
func (r Request) Active() bool {
	return r.Status == StatusWaiting || r.Status == StatusAssigned || r.Status == StatusPickedUp
}

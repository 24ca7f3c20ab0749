package model

import (
	"fmt"
	"time"
)

// Vehicle is a capacity-limited vehicle of the fleet.
type Vehicle struct {
	ID       int64
	Capacity int      // 0 falls back to the fleet default
	Location Location // node the vehicle is at, or is about to reach
	// Offset is the time left before the vehicle reaches Location.
	Offset time.Duration
	// Onboard lists the requests currently in the vehicle.
	Onboard []int64
	// Route holds the committed stops, in the order they will be served.
	Route Route
}

// Validate checks that the vehicle state is consistent.
func (v Vehicle) Validate(defaultCapacity int) error {
	c := v.CapacityOr(defaultCapacity)
	if c <= 0 {
		return fmt.Errorf("vehicle %d: capacity must be positive", v.ID)
	}
	if len(v.Onboard) > c {
		return fmt.Errorf("vehicle %d: %d onboard exceeds capacity %d", v.ID, len(v.Onboard), c)
	}
	if v.Offset < 0 {
		return fmt.Errorf("vehicle %d: negative offset", v.ID)
	}
	return v.Route.Validate(len(v.Onboard), c, v.Onboard)
}

// CapacityOr returns the vehicle capacity or def when unset.
func (v Vehicle) CapacityOr(def int) int {
	if v.Capacity > 0 {
		return v.Capacity
	}
	return def
}

// IsOnboard reports whether the request is in the vehicle.
func (v Vehicle) IsOnboard(id int64) bool {
	for _, o := range v.Onboard {
		if o == id {
			return true
		}
	}
	return false
}

// Pending returns the requests with a committed pickup that have not boarded.
func (v Vehicle) Pending() []int64 {
	var ids []int64
	for _, s := range v.Route.Stops {
		if s.Kind == Pickup {
			ids = append(ids, s.RequestID)
		}
	}
	return ids
}

// Clone returns a deep copy safe to hand to another goroutine.
func (v Vehicle) Clone() Vehicle {
	out := v
	out.Onboard = append([]int64(nil), v.Onboard...)
	out.Route = v.Route.Clone()
	return out
}

package model

import (
	"sort"
	"time"
)

// Trip pairs a vehicle with a feasible set of new requests and the route
// serving them together with the vehicle's commitments.
type Trip struct {
	VehicleID int64
	Requests  []int64 // sorted ascending
	Route     Route
	// AddedCost is Route.Cost minus the cost of the vehicle's empty trip.
	AddedCost time.Duration
}

// Size returns the number of new requests served by the trip.
func (t Trip) Size() int { return len(t.Requests) }

// Contains reports whether the trip serves request id.
func (t Trip) Contains(id int64) bool {
	i := sort.Search(len(t.Requests), func(i int) bool { return t.Requests[i] >= id })
	return i < len(t.Requests) && t.Requests[i] == id
}

// TripKey is a canonical, comparable encoding of a sorted request set.
type TripKey string

// KeyOf encodes a sorted request set.
func KeyOf(ids []int64) TripKey {
	b := make([]byte, 0, len(ids)*8)
	for _, id := range ids {
		u := uint64(id)
		b = append(b, byte(u>>56), byte(u>>48), byte(u>>40), byte(u>>32),
			byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
	}
	return TripKey(b)
}

// Key returns the canonical key of the trip's request set.
func (t Trip) Key() TripKey { return KeyOf(t.Requests) }

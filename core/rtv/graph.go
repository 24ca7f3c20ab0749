// Package rtv grows the feasible trips of every vehicle from the RV graph.
package rtv

import (
	"sort"

	"github.com/kilianp07/ridepool/core/model"
)

// Graph holds, for each vehicle, the trips it can serve this cycle. The
// first trip of every vehicle is its empty trip; the rest follow by size.
type Graph struct {
	Trips map[int64][]model.Trip
	// Truncated lists the vehicles whose growth ran out of time, ascending.
	Truncated []int64
	index     map[int64]map[model.TripKey]int
}

func newGraph() *Graph {
	return &Graph{
		Trips: make(map[int64][]model.Trip),
		index: make(map[int64]map[model.TripKey]int),
	}
}

func (g *Graph) set(vehicle int64, trips []model.Trip) {
	g.Trips[vehicle] = trips
	idx := make(map[model.TripKey]int, len(trips))
	for i, t := range trips {
		idx[t.Key()] = i
	}
	g.index[vehicle] = idx
}

// Vehicles returns the vehicle IDs in ascending order.
func (g *Graph) Vehicles() []int64 {
	ids := make([]int64, 0, len(g.Trips))
	for id := range g.Trips {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Lookup returns the trip of vehicle serving exactly the sorted set ids.
func (g *Graph) Lookup(vehicle int64, ids []int64) (model.Trip, bool) {
	i, ok := g.index[vehicle][model.KeyOf(ids)]
	if !ok {
		return model.Trip{}, false
	}
	return g.Trips[vehicle][i], true
}

// Size returns the total number of trips, empty trips included.
func (g *Graph) Size() int {
	n := 0
	for _, t := range g.Trips {
		n += len(t)
	}
	return n
}

// MaxTripSize returns the largest request count over all trips.
func (g *Graph) MaxTripSize() int {
	m := 0
	for _, trips := range g.Trips {
		for _, t := range trips {
			if t.Size() > m {
				m = t.Size()
			}
		}
	}
	return m
}

// Package rv builds the request-vehicle compatibility graph of a dispatch
// cycle: which vehicles can serve a request on top of their commitments and
// which requests could share a ride.
package rv

import (
	"sort"
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

// VehicleEdge links a request to a vehicle able to serve it.
type VehicleEdge struct {
	VehicleID int64
	// Cost is the travel time added to the vehicle's committed route.
	Cost  time.Duration
	Route model.Route
}

// RequestEdge links two requests that can share an empty vehicle.
type RequestEdge struct {
	RequestID int64
	Cost      time.Duration
}

// Graph is the pruned RV graph of one cycle. Edge lists are sorted by cost
// then identifier.
type Graph struct {
	Vehicles map[int64][]VehicleEdge // by request
	Requests map[int64][]RequestEdge // by request
	// Rejected lists requests left without any vehicle edge, ascending.
	Rejected []int64
	// Baseline is the cost of each vehicle's committed route alone.
	Baseline map[int64]time.Duration
}

// Shareable reports whether either request retained the other.
func (g *Graph) Shareable(a, b int64) bool {
	return hasRequest(g.Requests[a], b) || hasRequest(g.Requests[b], a)
}

// VehicleEdge returns the edge between request and vehicle, if retained.
func (g *Graph) VehicleEdge(request, vehicle int64) (VehicleEdge, bool) {
	for _, e := range g.Vehicles[request] {
		if e.VehicleID == vehicle {
			return e, true
		}
	}
	return VehicleEdge{}, false
}

// ByVehicle inverts the vehicle edges: vehicle ID to ascending request IDs.
func (g *Graph) ByVehicle() map[int64][]int64 {
	out := make(map[int64][]int64)
	for rid, edges := range g.Vehicles {
		for _, e := range edges {
			out[e.VehicleID] = append(out[e.VehicleID], rid)
		}
	}
	for _, ids := range out {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return out
}

// EdgeCounts returns the number of retained vehicle and request edges.
func (g *Graph) EdgeCounts() (vehicle, request int) {
	for _, e := range g.Vehicles {
		vehicle += len(e)
	}
	for _, e := range g.Requests {
		request += len(e)
	}
	return vehicle, request
}

func hasRequest(edges []RequestEdge, id int64) bool {
	for _, e := range edges {
		if e.RequestID == id {
			return true
		}
	}
	return false
}

func sortVehicleEdges(edges []VehicleEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Cost != edges[j].Cost {
			return edges[i].Cost < edges[j].Cost
		}
		return edges[i].VehicleID < edges[j].VehicleID
	})
}

func sortRequestEdges(edges []RequestEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Cost != edges[j].Cost {
			return edges[i].Cost < edges[j].Cost
		}
		return edges[i].RequestID < edges[j].RequestID
	})
}

// pruneVehicles keeps the k cheapest edges. When the incumbent vehicle would
// be cut it takes the place of the last retained edge so a request is never
// pruned away from the vehicle already holding it.
func pruneVehicles(edges []VehicleEdge, k int, incumbent int64, hasIncumbent bool) []VehicleEdge {
	sortVehicleEdges(edges)
	if len(edges) <= k {
		return edges
	}
	kept := append([]VehicleEdge(nil), edges[:k]...)
	if !hasIncumbent {
		return kept
	}
	for _, e := range kept {
		if e.VehicleID == incumbent {
			return kept
		}
	}
	for _, e := range edges[k:] {
		if e.VehicleID == incumbent {
			kept[k-1] = e
			sortVehicleEdges(kept)
			break
		}
	}
	return kept
}

func pruneRequests(edges []RequestEdge, k int) []RequestEdge {
	sortRequestEdges(edges)
	if len(edges) <= k {
		return edges
	}
	return append([]RequestEdge(nil), edges[:k]...)
}

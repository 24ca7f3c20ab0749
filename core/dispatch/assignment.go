package dispatch

import (
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

// CycleStats summarises one cycle.
type CycleStats struct {
	Vehicles   int
	Requests   int // requests entering the cycle as candidates
	Locked     int // assigned requests kept on their vehicle
	RVEdges    int
	RREdges    int
	Trips      int
	Pruned     int // rejected for lack of any vehicle edge
	Nodes      int
	Optimal    bool
	Objective  float64
	Duration   time.Duration
	SolverNote string
}

// Assignment is the outcome of a cycle.
type Assignment struct {
	CycleID string
	Time    time.Time
	// Trips holds the chosen trip of every vehicle, empty trips included.
	// Routes include the vehicle's committed stops.
	Trips map[int64]model.Trip
	// Served and Rejected partition the candidate requests, ascending.
	Served   []int64
	Rejected []int64
	Stats    CycleStats
}

// VehicleOf returns the vehicle serving request id, if any.
func (a Assignment) VehicleOf(id int64) (int64, bool) {
	for vid, t := range a.Trips {
		if t.Contains(id) {
			return vid, true
		}
	}
	return 0, false
}

package events

import (
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

// CycleEvent is published when a dispatch cycle produced an assignment.
type CycleEvent struct {
	CycleID  string
	Time     time.Time
	Vehicles int
	Requests int
	Served   int
	Rejected int
	RVEdges  int
	RREdges  int
	Trips    int
	Duration time.Duration
}

// CycleFailedEvent is published when a cycle aborts.
type CycleFailedEvent struct {
	CycleID string
	Time    time.Time
	Phase   string
	Err     error
}

// Rejection reasons.
const (
	ReasonNoVehicle   = "no_vehicle"
	ReasonNotSelected = "not_selected"
	ReasonEmptyFleet  = "empty_fleet"
)

// RejectionEvent is published for each request rejected in a cycle.
type RejectionEvent struct {
	CycleID   string
	RequestID int64
	Reason    string
}

// SolverEvent carries the assignment solver statistics of a cycle.
type SolverEvent struct {
	CycleID   string
	Nodes     int
	Optimal   bool
	Objective float64
	Err       error
}

// RouteEvent is published when a vehicle's committed route changes.
type RouteEvent struct {
	CycleID   string
	VehicleID int64
	Route     model.Route
}

package metrics

import "time"

// CycleStats summarises one dispatch cycle.
type CycleStats struct {
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

// MetricsSink records dispatch cycles for observability purposes.
type MetricsSink interface {
	RecordCycle(st CycleStats) error
}

// RejectionEvent records a request the dispatcher could not serve.
type RejectionEvent struct {
	CycleID   string
	RequestID int64
	Reason    string
	Time      time.Time
}

// RejectionRecorder records rejections.
type RejectionRecorder interface {
	RecordRejection(ev RejectionEvent) error
}

// SolverEvent captures the assignment solver outcome of a cycle.
type SolverEvent struct {
	CycleID   string
	Nodes     int
	Optimal   bool
	Objective float64
	Time      time.Time
}

// SolverRecorder records solver statistics.
type SolverRecorder interface {
	RecordSolver(ev SolverEvent) error
}

// CycleFailureEvent records an aborted cycle.
type CycleFailureEvent struct {
	CycleID string
	Phase   string
	Error   string
	Time    time.Time
}

// CycleFailureRecorder records aborted cycles.
type CycleFailureRecorder interface {
	RecordCycleFailure(ev CycleFailureEvent) error
}

// SimulationStats are the aggregate service figures of a simulation run.
// Durations are means over the requests counted in the statistics window.
type SimulationStats struct {
	Requests      int
	Served        int
	Rejected      int
	ServiceRate   float64
	MeanWait      time.Duration
	MeanRideTime  time.Duration
	MeanDelay     time.Duration
	MeanOccupancy float64
	SharedRate    float64
	Time          time.Time
}

// SimulationRecorder records simulation statistics.
type SimulationRecorder interface {
	RecordSimulation(st SimulationStats) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCycle(CycleStats) error               { return nil }
func (NopSink) RecordRejection(RejectionEvent) error       { return nil }
func (NopSink) RecordSolver(SolverEvent) error             { return nil }
func (NopSink) RecordCycleFailure(CycleFailureEvent) error { return nil }
func (NopSink) RecordSimulation(SimulationStats) error     { return nil }

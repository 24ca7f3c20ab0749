package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ridepool/core/assign"
	"github.com/kilianp07/ridepool/core/events"
	"github.com/kilianp07/ridepool/core/feasibility"
	"github.com/kilianp07/ridepool/core/logger"
	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/core/monitoring"
	"github.com/kilianp07/ridepool/core/network"
	"github.com/kilianp07/ridepool/core/rtv"
	"github.com/kilianp07/ridepool/core/rv"
	"github.com/kilianp07/ridepool/internal/eventbus"
)

// newCycleID names a cycle for logs and events. IDs are random, so two runs
// over the same snapshot share Trips, Served and Rejected but not CycleID.
var newCycleID = func() string { return uuid.NewString() }

// Engine runs dispatch cycles. A cycle reads an immutable snapshot of the
// fleet and returns an Assignment; it never mutates its inputs.
type Engine struct {
	cfg       Config
	bound     feasibility.DelayBound
	optimizer *assign.Optimizer
	bus       eventbus.EventBus
	log       logger.Logger
}

// NewEngine validates cfg and returns an Engine. bus may be nil.
func NewEngine(cfg Config, solver assign.Solver, bus eventbus.EventBus, log logger.Logger) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch config: %w", err)
	}
	if solver == nil {
		return nil, fmt.Errorf("dispatch: nil solver")
	}
	if log == nil {
		return nil, fmt.Errorf("dispatch: nil logger")
	}
	return &Engine{
		cfg:       cfg,
		bound:     cfg.DelayBound.Bound(),
		optimizer: assign.NewOptimizer(solver, cfg.Objective),
		bus:       bus,
		log:       log,
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Checker returns a feasibility checker configured like the engine's.
func (e *Engine) Checker(oracle network.Oracle) *feasibility.Checker {
	return feasibility.NewChecker(oracle, e.cfg.checkerConfig(), e.bound)
}

// RunCycle computes the assignment for the given snapshot. Errors are
// *CycleError values wrapping ErrOracle, ErrInvariant, ErrSolver or a
// context error. Repeated runs on one snapshot return the same Trips,
// Served and Rejected; CycleID and Stats.Duration differ per run.
func (e *Engine) RunCycle(ctx context.Context, vehicles []model.Vehicle, requests []model.Request, now time.Time, oracle network.Oracle) (Assignment, error) {
	start := time.Now()
	out := Assignment{CycleID: newCycleID(), Time: now}

	phase := PhasePrepare
	fail := func(err error) (Assignment, error) {
		err = classify(phase, err)
		cycleFailures.WithLabelValues(phase).Inc()
		monitoring.CaptureException(err, monitoring.CycleTags(out.CycleID, phase))
		e.log.Errorf("cycle %s failed in %s: %v", out.CycleID, phase, err)
		e.publish(events.CycleFailedEvent{CycleID: out.CycleID, Time: now, Phase: phase, Err: err})
		return Assignment{}, &CycleError{CycleID: out.CycleID, Phase: phase, Err: err}
	}

	snap, err := e.prepare(vehicles, requests, now, oracle)
	if err != nil {
		return fail(err)
	}
	e.observe(phase, start)
	out.Stats.Vehicles = len(snap.states)
	out.Stats.Requests = len(snap.candidates)
	out.Stats.Locked = snap.locked

	checker := e.Checker(oracle)
	reasons := make(map[int64]string)

	if len(snap.states) == 0 {
		for _, r := range snap.candidates {
			out.Rejected = append(out.Rejected, r.ID)
			reasons[r.ID] = events.ReasonEmptyFleet
		}
		out.Trips = map[int64]model.Trip{}
		out.Stats.Optimal = true
		return e.finish(out, snap, reasons, start), nil
	}

	phase = PhaseRV
	t := time.Now()
	rvg, err := rv.NewBuilder(checker, e.cfg.rvConfig()).Build(ctx, rv.Input{
		Now:       now,
		Vehicles:  snap.states,
		Requests:  snap.candidates,
		Incumbent: snap.incumbent,
	})
	if err != nil {
		return fail(err)
	}
	e.observe(phase, t)
	out.Stats.RVEdges, out.Stats.RREdges = rvg.EdgeCounts()
	out.Stats.Pruned = len(rvg.Rejected)
	for _, id := range rvg.Rejected {
		reasons[id] = events.ReasonNoVehicle
	}

	phase = PhaseRTV
	t = time.Now()
	rtvg, err := rtv.NewBuilder(checker, e.cfg.Workers).
		WithTimeLimit(time.Duration(e.cfg.RTVTimeLimitMS)*time.Millisecond).
		Build(ctx, snap.states, rvg, snap.byID)
	if err != nil {
		return fail(err)
	}
	e.observe(phase, t)
	if len(rtvg.Truncated) > 0 {
		e.log.Warnf("cycle %s: trip growth hit the time limit for vehicles %v", out.CycleID, rtvg.Truncated)
	}
	out.Stats.Trips = rtvg.Size()

	phase = PhaseSolve
	t = time.Now()
	// Requests without a vehicle edge are already decided.
	open := snap.candidates
	if len(rvg.Rejected) > 0 {
		open = make([]model.Request, 0, len(snap.candidates))
		for _, r := range snap.candidates {
			if reasons[r.ID] != events.ReasonNoVehicle {
				open = append(open, r)
			}
		}
	}
	res, err := e.optimizer.Optimize(ctx, rtvg, open, snap.held)
	if err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	e.observe(phase, t)

	out.Trips = res.Trips
	out.Served = res.Served
	out.Rejected = append(append([]int64(nil), res.Rejected...), rvg.Rejected...)
	out.Stats.Nodes = res.Nodes
	out.Stats.Optimal = res.Optimal
	out.Stats.Objective = res.Objective
	if res.Degraded != nil {
		out.Stats.SolverNote = res.Degraded.Error()
		e.log.Warnf("cycle %s: solver returned a non-optimal assignment: %v", out.CycleID, res.Degraded)
	}
	for _, id := range out.Rejected {
		if _, ok := reasons[id]; !ok {
			reasons[id] = events.ReasonNotSelected
		}
		if snap.held[id] {
			e.log.Warnf("cycle %s: previously assigned request %d was rejected", out.CycleID, id)
		}
	}
	solverNodes.Observe(float64(res.Nodes))
	e.publish(events.SolverEvent{CycleID: out.CycleID, Nodes: res.Nodes, Optimal: res.Optimal, Objective: res.Objective, Err: res.Degraded})
	return e.finish(out, snap, reasons, start), nil
}

func (e *Engine) finish(out Assignment, snap *snapshot, reasons map[int64]string, start time.Time) Assignment {
	sort.Slice(out.Rejected, func(i, j int) bool { return out.Rejected[i] < out.Rejected[j] })
	out.Stats.Duration = time.Since(start)

	requestsTotal.WithLabelValues("served").Add(float64(len(out.Served)))
	requestsTotal.WithLabelValues("rejected").Add(float64(len(out.Rejected)))
	graphSize.WithLabelValues("rv_edges").Set(float64(out.Stats.RVEdges))
	graphSize.WithLabelValues("rr_edges").Set(float64(out.Stats.RREdges))
	graphSize.WithLabelValues("trips").Set(float64(out.Stats.Trips))

	for _, id := range out.Rejected {
		e.publish(events.RejectionEvent{CycleID: out.CycleID, RequestID: id, Reason: reasons[id]})
	}
	for _, st := range snap.states {
		t, ok := out.Trips[st.VehicleID]
		if ok && (t.Size() > 0 || !sameStops(t.Route.Stops, st.Committed)) {
			e.publish(events.RouteEvent{CycleID: out.CycleID, VehicleID: st.VehicleID, Route: t.Route.Clone()})
		}
	}
	e.publish(events.CycleEvent{
		CycleID:  out.CycleID,
		Time:     out.Time,
		Vehicles: out.Stats.Vehicles,
		Requests: out.Stats.Requests,
		Served:   len(out.Served),
		Rejected: len(out.Rejected),
		RVEdges:  out.Stats.RVEdges,
		RREdges:  out.Stats.RREdges,
		Trips:    out.Stats.Trips,
		Duration: out.Stats.Duration,
	})
	e.log.Infow("dispatch cycle", map[string]any{
		"cycle_id": out.CycleID,
		"vehicles": out.Stats.Vehicles,
		"requests": out.Stats.Requests,
		"served":   len(out.Served),
		"rejected": len(out.Rejected),
		"trips":    out.Stats.Trips,
		"optimal":  out.Stats.Optimal,
		"duration": out.Stats.Duration.String(),
	})
	return out
}

func (e *Engine) observe(phase string, since time.Time) {
	phaseDuration.WithLabelValues(phase).Observe(time.Since(since).Seconds())
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func sameStops(a, b []model.Stop) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].RequestID != b[i].RequestID || a[i].Kind != b[i].Kind {
			return false
		}
	}
	return true
}

// IsCycleError reports whether err aborted a cycle and returns it.
func IsCycleError(err error) (*CycleError, bool) {
	var ce *CycleError
	ok := errors.As(err, &ce)
	return ce, ok
}

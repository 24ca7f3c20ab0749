package assign

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/core/rtv"
)

// Objective selects how rejections are weighted.
type Objective string

const (
	// ObjectiveServiceRate counts every rejection alike.
	ObjectiveServiceRate Objective = "service_rate"
	// ObjectivePriority weights rejections by request priority.
	ObjectivePriority Objective = "priority"
	// ObjectiveTravelTime weights rejections by the direct travel time of the
	// request, favouring long rides among equally sized served sets.
	ObjectiveTravelTime Objective = "travel_time"
)

// Valid reports whether o names a known objective.
func (o Objective) Valid() bool {
	switch o {
	case ObjectiveServiceRate, ObjectivePriority, ObjectiveTravelTime:
		return true
	}
	return false
}

// HeldWeight multiplies the rejection penalty of requests that were already
// promised a vehicle in an earlier cycle.
const HeldWeight = 10

// Result is the outcome of one optimization.
type Result struct {
	Trips    map[int64]model.Trip // one per vehicle
	Served   []int64
	Rejected []int64
	// Penalty is the per-request rejection cost before weighting, in seconds.
	Penalty   float64
	Objective float64
	Optimal   bool
	Nodes     int
	// Degraded holds why the solver stopped before proving optimality.
	Degraded error
}

// Optimizer turns an RTV graph into an assignment.
type Optimizer struct {
	solver    Solver
	objective Objective
}

// NewOptimizer returns an Optimizer. An empty objective counts rejections.
func NewOptimizer(s Solver, objective Objective) *Optimizer {
	if objective == "" {
		objective = ObjectiveServiceRate
	}
	return &Optimizer{solver: s, objective: objective}
}

// Optimize chooses one trip per vehicle and rejects the requests no chosen
// trip covers. held marks requests kept from a previous assignment.
func (o *Optimizer) Optimize(ctx context.Context, g *rtv.Graph, requests []model.Request, held map[int64]bool) (Result, error) {
	res := Result{Trips: make(map[int64]model.Trip, len(g.Trips)), Optimal: true}
	if len(g.Trips) == 0 {
		for _, r := range requests {
			res.Rejected = append(res.Rejected, r.ID)
		}
		sort.Slice(res.Rejected, func(i, j int) bool { return res.Rejected[i] < res.Rejected[j] })
		return res, nil
	}
	if len(requests) == 0 {
		// Only the empty trips remain: each vehicle keeps its commitments.
		for _, vid := range g.Vehicles() {
			res.Trips[vid] = g.Trips[vid][0]
		}
		return res, nil
	}

	penalty := rejectionPenalty(g)
	res.Penalty = penalty

	reqRow := make(map[int64]int, len(requests))
	vehicles := g.Vehicles()
	var p Problem
	var trips []model.Trip
	p.Rows = make([][]int, len(vehicles)+len(requests))
	p.Slack = make([]int, len(vehicles)+len(requests))
	for i, r := range requests {
		reqRow[r.ID] = len(vehicles) + i
	}

	for vi, vid := range vehicles {
		for ti, t := range g.Trips[vid] {
			col := len(p.Cost)
			p.Cost = append(p.Cost, t.AddedCost.Seconds())
			trips = append(trips, t)
			p.Rows[vi] = append(p.Rows[vi], col)
			if ti == 0 {
				if t.Size() != 0 {
					return Result{}, fmt.Errorf("%w: vehicle %d has no leading empty trip", ErrSolverFailed, vid)
				}
				p.Slack[vi] = col
			}
			for _, rid := range t.Requests {
				row, ok := reqRow[rid]
				if !ok {
					return Result{}, fmt.Errorf("%w: trip of vehicle %d serves unknown request %d", ErrSolverFailed, vid, rid)
				}
				p.Rows[row] = append(p.Rows[row], col)
			}
		}
	}
	rejectCol := make(map[int]int64, len(requests))
	weights := o.weights(requests, held)
	for i, r := range requests {
		col := len(p.Cost)
		p.Cost = append(p.Cost, penalty*weights[i])
		row := reqRow[r.ID]
		p.Rows[row] = append(p.Rows[row], col)
		p.Slack[row] = col
		rejectCol[col] = r.ID
	}

	sol, err := o.solver.Solve(ctx, p)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSolverFailed, err)
	}
	res.Objective, res.Optimal, res.Nodes, res.Degraded = sol.Objective, sol.Optimal, sol.Nodes, sol.Err

	for _, col := range sol.Selected {
		if rid, ok := rejectCol[col]; ok {
			res.Rejected = append(res.Rejected, rid)
			continue
		}
		if col < 0 || col >= len(trips) {
			return Result{}, fmt.Errorf("%w: column %d out of range", ErrSolverFailed, col)
		}
		t := trips[col]
		if _, dup := res.Trips[t.VehicleID]; dup {
			return Result{}, fmt.Errorf("%w: vehicle %d selected twice", ErrSolverFailed, t.VehicleID)
		}
		res.Trips[t.VehicleID] = t
		res.Served = append(res.Served, t.Requests...)
	}
	if err := checkCoverage(res, vehicles, requests); err != nil {
		return Result{}, err
	}
	sort.Slice(res.Served, func(i, j int) bool { return res.Served[i] < res.Served[j] })
	sort.Slice(res.Rejected, func(i, j int) bool { return res.Rejected[i] < res.Rejected[j] })
	return res, nil
}

// weights returns the rejection weight of every request, scaled so that the
// lightest is 1. Each weighted penalty then stays above the trip cost spread.
func (o *Optimizer) weights(requests []model.Request, held map[int64]bool) []float64 {
	w := make([]float64, len(requests))
	lightest := math.Inf(1)
	for i, r := range requests {
		w[i] = 1
		switch o.objective {
		case ObjectivePriority:
			w[i] = r.Weight()
		case ObjectiveTravelTime:
			if d := r.DirectTime.Seconds(); d > 0 {
				w[i] = d
			}
		}
		if held[r.ID] {
			w[i] *= HeldWeight
		}
		lightest = min(lightest, w[i])
	}
	for i := range w {
		w[i] /= lightest
	}
	return w
}

// rejectionPenalty exceeds the largest possible difference in total trip
// cost between two assignments, so serving one more request always wins.
func rejectionPenalty(g *rtv.Graph) float64 {
	spread := 0.0
	for _, trips := range g.Trips {
		lo, hi := 0.0, 0.0
		for i, t := range trips {
			c := t.AddedCost.Seconds()
			if i == 0 || c < lo {
				lo = c
			}
			if i == 0 || c > hi {
				hi = c
			}
		}
		spread += hi - lo
	}
	return spread + 1
}

func checkCoverage(res Result, vehicles []int64, requests []model.Request) error {
	for _, vid := range vehicles {
		if _, ok := res.Trips[vid]; !ok {
			return fmt.Errorf("%w: vehicle %d has no trip", ErrSolverFailed, vid)
		}
	}
	seen := make(map[int64]int, len(requests))
	for _, id := range res.Served {
		seen[id]++
	}
	for _, id := range res.Rejected {
		seen[id]++
	}
	for _, r := range requests {
		if seen[r.ID] != 1 {
			return fmt.Errorf("%w: request %d covered %d times", ErrSolverFailed, r.ID, seen[r.ID])
		}
	}
	return nil
}

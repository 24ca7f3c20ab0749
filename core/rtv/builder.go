package rtv

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/ridepool/core/feasibility"
	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/core/rv"
	"github.com/kilianp07/ridepool/internal/workpool"
)

// now is the clock used for the growth budget. Tests override it.
var now = time.Now

// Builder enumerates trips level by level.
type Builder struct {
	checker *feasibility.Checker
	workers int
	limit   time.Duration
}

// NewBuilder returns a Builder running at most workers vehicles at once.
func NewBuilder(checker *feasibility.Checker, workers int) *Builder {
	return &Builder{checker: checker, workers: workers}
}

// WithTimeLimit bounds the time spent growing the trips of each vehicle.
// Once it is spent the vehicle keeps the trips found so far. Zero disables
// the limit.
func (b *Builder) WithTimeLimit(d time.Duration) *Builder {
	b.limit = d
	return b
}

type grown struct {
	trips     []model.Trip
	truncated bool
}

// Build grows the trips of every vehicle. requests must hold every request
// referenced by the RV graph.
func (b *Builder) Build(ctx context.Context, vehicles []feasibility.State, g *rv.Graph, requests map[int64]model.Request) (*Graph, error) {
	byVehicle := g.ByVehicle()
	res, err := workpool.Map(ctx, b.workers, vehicles, func(ctx context.Context, st feasibility.State) (grown, error) {
		var deadline time.Time
		if b.limit > 0 {
			deadline = now().Add(b.limit)
		}
		return b.grow(ctx, deadline, st, g, byVehicle[st.VehicleID], requests)
	})
	if err != nil {
		return nil, err
	}
	out := newGraph()
	for i, st := range vehicles {
		out.set(st.VehicleID, res[i].trips)
		if res[i].truncated {
			out.Truncated = append(out.Truncated, st.VehicleID)
		}
	}
	sort.Slice(out.Truncated, func(i, j int) bool { return out.Truncated[i] < out.Truncated[j] })
	return out, nil
}

// grow builds the trips of one vehicle. A trip of size k+1 is only checked
// when each of its size-k subsets is a known trip and the added request is
// shareable with every member of the trip it extends. Growth stops at a
// non-zero deadline; single-request trips come from the RV graph and are
// always kept.
func (b *Builder) grow(ctx context.Context, deadline time.Time, st feasibility.State, g *rv.Graph, candidates []int64, requests map[int64]model.Request) (grown, error) {
	empty, ok, err := b.checker.Check(st, nil)
	if err != nil {
		return grown{}, err
	}
	if !ok {
		return grown{}, fmt.Errorf("vehicle %d: %w", st.VehicleID, feasibility.ErrCommitted)
	}
	base := empty.Cost
	trips := []model.Trip{{VehicleID: st.VehicleID, Route: empty}}
	known := make(map[model.TripKey]bool)

	var level []model.Trip
	for _, id := range candidates {
		e, _ := g.VehicleEdge(id, st.VehicleID)
		t := model.Trip{VehicleID: st.VehicleID, Requests: []int64{id}, Route: e.Route, AddedCost: e.Route.Cost - base}
		level = append(level, t)
		known[t.Key()] = true
	}

	out := grown{}
	for size := 1; len(level) > 0; size++ {
		trips = append(trips, level...)
		if size >= st.Capacity {
			break
		}
		var next []model.Trip
	scan:
		for _, t := range level {
			last := t.Requests[len(t.Requests)-1]
			for _, r := range candidates {
				if r <= last || !shareableWithAll(g, t.Requests, r) {
					continue
				}
				ids := append(append(make([]int64, 0, size+1), t.Requests...), r)
				if !subsetsKnown(known, ids) {
					continue
				}
				if err := ctx.Err(); err != nil {
					return grown{}, err
				}
				if !deadline.IsZero() && !now().Before(deadline) {
					out.truncated = true
					break scan
				}
				reqs := make([]model.Request, len(ids))
				for i, id := range ids {
					reqs[i] = requests[id]
				}
				route, ok, err := b.checker.Check(st, reqs)
				if err != nil {
					return grown{}, err
				}
				if !ok {
					continue
				}
				next = append(next, model.Trip{VehicleID: st.VehicleID, Requests: ids, Route: route, AddedCost: route.Cost - base})
			}
		}
		for _, t := range next {
			known[t.Key()] = true
		}
		if out.truncated {
			trips = append(trips, next...)
			break
		}
		level = next
	}
	out.trips = trips
	return out, nil
}

func shareableWithAll(g *rv.Graph, members []int64, r int64) bool {
	for _, m := range members {
		if !g.Shareable(m, r) {
			return false
		}
	}
	return true
}

// subsetsKnown checks every subset of ids obtained by dropping one element.
func subsetsKnown(known map[model.TripKey]bool, ids []int64) bool {
	sub := make([]int64, len(ids)-1)
	for skip := range ids {
		copy(sub, ids[:skip])
		copy(sub[skip:], ids[skip+1:])
		if !known[model.KeyOf(sub)] {
			return false
		}
	}
	return true
}

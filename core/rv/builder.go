package rv

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/ridepool/core/feasibility"
	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/internal/workpool"
)

// Config bounds the graph fan-out.
type Config struct {
	// RVK is the number of vehicle edges retained per request.
	RVK int
	// RRK is the number of request edges retained per request.
	RRK int
	// Capacity of the hypothetical vehicle used for the shareability test.
	Capacity int
	Workers  int
}

// Input is the cycle snapshot handed to the builder. Vehicles and Requests
// are read concurrently and must not be modified during Build.
type Input struct {
	Now      time.Time
	Vehicles []feasibility.State
	Requests []model.Request
	// Incumbent maps a request to the vehicle currently holding it.
	Incumbent map[int64]int64
}

// Builder computes RV graphs.
type Builder struct {
	checker *feasibility.Checker
	cfg     Config
}

// NewBuilder returns a Builder using checker for every feasibility test.
func NewBuilder(checker *feasibility.Checker, cfg Config) *Builder {
	return &Builder{checker: checker, cfg: cfg}
}

// Build tests every (request, vehicle) and (request, request) pair and
// prunes the result. Infeasible pairs are simply absent; only oracle
// failures and broken commitments are returned as errors.
func (b *Builder) Build(ctx context.Context, in Input) (*Graph, error) {
	g := &Graph{
		Vehicles: make(map[int64][]VehicleEdge, len(in.Requests)),
		Requests: make(map[int64][]RequestEdge, len(in.Requests)),
		Baseline: make(map[int64]time.Duration, len(in.Vehicles)),
	}

	base, err := workpool.Map(ctx, b.cfg.Workers, in.Vehicles, func(_ context.Context, st feasibility.State) (time.Duration, error) {
		route, ok, err := b.checker.Check(st, nil)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("vehicle %d: %w", st.VehicleID, feasibility.ErrCommitted)
		}
		return route.Cost, nil
	})
	if err != nil {
		return nil, err
	}
	for i, st := range in.Vehicles {
		g.Baseline[st.VehicleID] = base[i]
	}

	vedges, err := workpool.Map(ctx, b.cfg.Workers, in.Requests, func(_ context.Context, r model.Request) ([]VehicleEdge, error) {
		return b.vehicleEdges(in, g.Baseline, r)
	})
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(in.Requests))
	for i := range idx {
		idx[i] = i
	}
	pairs, err := workpool.Map(ctx, b.cfg.Workers, idx, func(_ context.Context, i int) ([]RequestEdge, error) {
		return b.requestEdges(in, i)
	})
	if err != nil {
		return nil, err
	}

	raw := make(map[int64][]RequestEdge, len(in.Requests))
	for i, edges := range pairs {
		a := in.Requests[i].ID
		for _, e := range edges {
			raw[a] = append(raw[a], e)
			raw[e.RequestID] = append(raw[e.RequestID], RequestEdge{RequestID: a, Cost: e.Cost})
		}
	}

	for i, r := range in.Requests {
		inc, has := in.Incumbent[r.ID]
		kept := pruneVehicles(vedges[i], b.cfg.RVK, inc, has)
		if len(kept) == 0 {
			g.Rejected = append(g.Rejected, r.ID)
			continue
		}
		g.Vehicles[r.ID] = kept
		if edges := raw[r.ID]; len(edges) > 0 {
			g.Requests[r.ID] = pruneRequests(edges, b.cfg.RRK)
		}
	}
	return g, nil
}

func (b *Builder) vehicleEdges(in Input, base map[int64]time.Duration, r model.Request) ([]VehicleEdge, error) {
	var edges []VehicleEdge
	latest := r.LatestPickup()
	for _, st := range in.Vehicles {
		d, err := b.checker.TravelTime(st.Location, r.Origin)
		if err != nil {
			return nil, err
		}
		if st.Now.Add(st.Offset + d).After(latest) {
			continue
		}
		route, ok, err := b.checker.Check(st, []model.Request{r})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		edges = append(edges, VehicleEdge{
			VehicleID: st.VehicleID,
			Cost:      route.Cost - base[st.VehicleID],
			Route:     route,
		})
	}
	return edges, nil
}

// requestEdges tests request i against every later request. The pair is
// shareable when an empty vehicle waiting at either origin can serve both;
// the cheaper placement sets the edge cost.
func (b *Builder) requestEdges(in Input, i int) ([]RequestEdge, error) {
	a := in.Requests[i]
	var edges []RequestEdge
	for _, c := range in.Requests[i+1:] {
		pair := []model.Request{a, c}
		best, found := time.Duration(0), false
		for _, loc := range []model.Location{a.Origin, c.Origin} {
			route, ok, err := b.checker.Check(feasibility.EmptyAt(loc, b.cfg.Capacity, in.Now), pair)
			if err != nil {
				return nil, err
			}
			if ok && (!found || route.Cost < best) {
				best, found = route.Cost, true
			}
		}
		if found {
			edges = append(edges, RequestEdge{RequestID: c.ID, Cost: best})
		}
	}
	return edges, nil
}

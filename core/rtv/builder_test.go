package rtv

import (
	"context"
	"testing"
	"time"

	"github.com/kilianp07/ridepool/core/feasibility"
	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/core/rv"
	"github.com/kilianp07/ridepool/infra/network"
)

var t0 = time.Unix(0, 0)

func line(t *testing.T, n int) *network.MatrixOracle {
	t.Helper()
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			d := i - j
			if d < 0 {
				d = -d
			}
			m[i][j] = float64(d * 60)
		}
	}
	o, err := network.NewMatrixOracle(m)
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	return o
}

func req(id int64, from, to model.Location) model.Request {
	d := to - from
	if d < 0 {
		d = -d
	}
	return model.Request{
		ID: id, Origin: from, Destination: to, CreatedAt: t0,
		MaxWait: 5 * time.Minute, MaxDelay: 10 * time.Minute,
		DirectTime: time.Duration(d) * time.Minute,
	}
}

func vehicle(id int64, at model.Location, capacity int) feasibility.State {
	st := feasibility.EmptyAt(at, capacity, t0)
	st.VehicleID = id
	return st
}

type fixture struct {
	vehicles []feasibility.State
	requests []model.Request
	rvg      *rv.Graph
	rtvg     *Graph
}

func build(t *testing.T, vehicles []feasibility.State, requests []model.Request, rvk, rrk int) fixture {
	t.Helper()
	checker := feasibility.NewChecker(line(t, 40), feasibility.Config{}, nil)
	rvg, err := rv.NewBuilder(checker, rv.Config{RVK: rvk, RRK: rrk, Capacity: 4, Workers: 2}).
		Build(context.Background(), rv.Input{Now: t0, Vehicles: vehicles, Requests: requests})
	if err != nil {
		t.Fatalf("rv build: %v", err)
	}
	byID := make(map[int64]model.Request, len(requests))
	for _, r := range requests {
		byID[r.ID] = r
	}
	g, err := NewBuilder(checker, 2).Build(context.Background(), vehicles, rvg, byID)
	if err != nil {
		t.Fatalf("rtv build: %v", err)
	}
	return fixture{vehicles: vehicles, requests: requests, rvg: rvg, rtvg: g}
}

func TestBuildClosureProperty(t *testing.T) {
	f := build(t,
		[]feasibility.State{vehicle(1, 2, 4), vehicle(2, 5, 3), vehicle(3, 9, 2)},
		[]model.Request{req(1, 2, 12), req(2, 3, 13), req(3, 4, 11), req(4, 5, 14), req(5, 6, 12), req(6, 9, 1)},
		10, 10)

	if f.rtvg.MaxTripSize() < 3 {
		t.Fatalf("fixture too small to exercise growth: max size %d", f.rtvg.MaxTripSize())
	}
	for vid, trips := range f.rtvg.Trips {
		for _, trip := range trips {
			if trip.Size() < 2 {
				continue
			}
			for skip := range trip.Requests {
				sub := append(append([]int64(nil), trip.Requests[:skip]...), trip.Requests[skip+1:]...)
				if _, ok := f.rtvg.Lookup(vid, sub); !ok {
					t.Fatalf("vehicle %d: trip %v kept without subset %v", vid, trip.Requests, sub)
				}
			}
		}
	}
}

func TestBuildRespectsCapacityAndEmptyTrip(t *testing.T) {
	f := build(t,
		[]feasibility.State{vehicle(1, 2, 2), vehicle(2, 3, 1)},
		[]model.Request{req(1, 2, 10), req(2, 3, 11), req(3, 3, 9)},
		10, 10)

	for _, st := range f.vehicles {
		trips := f.rtvg.Trips[st.VehicleID]
		if len(trips) == 0 || trips[0].Size() != 0 {
			t.Fatalf("vehicle %d: missing leading empty trip", st.VehicleID)
		}
		for _, trip := range trips {
			if trip.Size() > st.Capacity {
				t.Fatalf("vehicle %d: trip %v exceeds capacity %d", st.VehicleID, trip.Requests, st.Capacity)
			}
			if err := trip.Route.Validate(st.Onboard, st.Capacity, nil); err != nil {
				t.Fatalf("vehicle %d: invalid route: %v", st.VehicleID, err)
			}
		}
	}
}

func TestBuildSharedTrip(t *testing.T) {
	f := build(t,
		[]feasibility.State{vehicle(1, 0, 2)},
		[]model.Request{req(1, 1, 6), req(2, 2, 7)},
		10, 10)
	trip, ok := f.rtvg.Lookup(1, []int64{1, 2})
	if !ok {
		t.Fatal("expected the shared trip")
	}
	single1, _ := f.rtvg.Lookup(1, []int64{1})
	single2, _ := f.rtvg.Lookup(1, []int64{2})
	if trip.AddedCost >= single1.AddedCost+single2.AddedCost {
		t.Fatalf("shared trip %v should beat two single trips %v + %v", trip.AddedCost, single1.AddedCost, single2.AddedCost)
	}
}

func TestBuildRequiresRequestEdges(t *testing.T) {
	f := build(t,
		[]feasibility.State{vehicle(1, 0, 2)},
		[]model.Request{req(1, 1, 6), req(2, 2, 7)},
		10, 0)
	if _, ok := f.rtvg.Lookup(1, []int64{1, 2}); ok {
		t.Fatal("pair without request edge must not be grown")
	}
	if f.rtvg.Size() != 3 {
		t.Fatalf("expected empty plus two singles, got %d trips", f.rtvg.Size())
	}
}

// stepClock advances by step on every reading.
func stepClock(step time.Duration) func() time.Time {
	at := t0
	return func() time.Time {
		at = at.Add(step)
		return at
	}
}

func TestBuildTimeLimitKeepsSingles(t *testing.T) {
	vehicles := []feasibility.State{vehicle(1, 0, 3)}
	requests := []model.Request{req(1, 1, 6), req(2, 2, 7), req(3, 2, 6)}
	checker := feasibility.NewChecker(line(t, 40), feasibility.Config{}, nil)
	rvg, err := rv.NewBuilder(checker, rv.Config{RVK: 10, RRK: 10, Capacity: 4, Workers: 1}).
		Build(context.Background(), rv.Input{Now: t0, Vehicles: vehicles, Requests: requests})
	if err != nil {
		t.Fatalf("rv build: %v", err)
	}
	byID := map[int64]model.Request{1: requests[0], 2: requests[1], 3: requests[2]}

	full, err := NewBuilder(checker, 1).Build(context.Background(), vehicles, rvg, byID)
	if err != nil {
		t.Fatalf("rtv build: %v", err)
	}
	if full.MaxTripSize() < 2 || len(full.Truncated) != 0 {
		t.Fatalf("unbounded build should grow pairs: max %d truncated %v", full.MaxTripSize(), full.Truncated)
	}

	// The deadline is read once per vehicle, then every check is already late.
	orig := now
	now = stepClock(time.Second)
	t.Cleanup(func() { now = orig })

	g, err := NewBuilder(checker, 1).WithTimeLimit(time.Second).Build(context.Background(), vehicles, rvg, byID)
	if err != nil {
		t.Fatalf("rtv build: %v", err)
	}
	if len(g.Truncated) != 1 || g.Truncated[0] != 1 {
		t.Fatalf("expected vehicle 1 truncated, got %v", g.Truncated)
	}
	if g.MaxTripSize() != 1 {
		t.Fatalf("expected only single trips, max size %d", g.MaxTripSize())
	}
	for _, id := range []int64{1, 2, 3} {
		if _, ok := g.Lookup(1, []int64{id}); !ok {
			t.Fatalf("single trip %d lost under the time limit", id)
		}
	}
	if g.Size() != 4 {
		t.Fatalf("expected empty plus three singles, got %d", g.Size())
	}
}

func TestBuildCancelledDuringGrowth(t *testing.T) {
	vehicles := []feasibility.State{vehicle(1, 0, 2)}
	requests := []model.Request{req(1, 1, 6), req(2, 2, 7)}
	checker := feasibility.NewChecker(line(t, 40), feasibility.Config{}, nil)
	rvg, err := rv.NewBuilder(checker, rv.Config{RVK: 10, RRK: 10, Capacity: 4, Workers: 1}).
		Build(context.Background(), rv.Input{Now: t0, Vehicles: vehicles, Requests: requests})
	if err != nil {
		t.Fatalf("rv build: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	byID := map[int64]model.Request{1: requests[0], 2: requests[1]}
	if _, err := NewBuilder(checker, 1).Build(ctx, vehicles, rvg, byID); err == nil {
		t.Fatal("expected cancellation error")
	}
}

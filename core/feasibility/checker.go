package feasibility

import (
	"errors"
	"sort"
	"time"

	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/core/network"
)

// ErrCommitted reports a vehicle whose committed stops can no longer be
// served on time.
var ErrCommitted = errors.New("committed route infeasible")

// DefaultEnumerationLimit is the largest request set searched exhaustively.
const DefaultEnumerationLimit = 4

// CostMode selects how a feasible route is priced. The stop order is always
// the one finishing earliest.
type CostMode string

const (
	// CostTravelTime prices a route by the time until its last stop.
	CostTravelTime CostMode = "travel_time"
	// CostDelay prices a route by the summed lateness of its dropoffs
	// against a direct ride.
	CostDelay CostMode = "delay"
)

// Valid reports whether m names a known cost mode. Empty selects
// CostTravelTime.
func (m CostMode) Valid() bool {
	return m == "" || m == CostTravelTime || m == CostDelay
}

// Config tunes the checker.
type Config struct {
	DwellPickup  time.Duration
	DwellDropoff time.Duration
	// EnumerationLimit caps exhaustive search; 0 means DefaultEnumerationLimit.
	EnumerationLimit int
	Cost             CostMode
}

// State is the part of a vehicle the checker reasons about.
type State struct {
	VehicleID int64
	Location  model.Location
	Now       time.Time
	Offset    time.Duration
	Capacity  int
	Onboard   int
	// Committed stops keep their relative order in every returned route.
	Committed []model.Stop
}

// StateOf snapshots v at now. capacity is the fleet default.
func StateOf(v model.Vehicle, capacity int, now time.Time) State {
	return State{
		VehicleID: v.ID,
		Location:  v.Location,
		Now:       now,
		Offset:    v.Offset,
		Capacity:  v.CapacityOr(capacity),
		Onboard:   len(v.Onboard),
		Committed: v.Route.Stops,
	}
}

// EmptyAt returns the state of an idle, empty vehicle at loc.
func EmptyAt(loc model.Location, capacity int, now time.Time) State {
	return State{VehicleID: -1, Location: loc, Now: now, Capacity: capacity}
}

// Checker tests trip feasibility against a network oracle. It holds no
// mutable state and is safe for concurrent use.
type Checker struct {
	oracle network.Oracle
	cfg    Config
	bound  DelayBound
}

// NewChecker creates a Checker. A nil bound defaults to Additive.
func NewChecker(o network.Oracle, cfg Config, bound DelayBound) *Checker {
	if cfg.EnumerationLimit <= 0 {
		cfg.EnumerationLimit = DefaultEnumerationLimit
	}
	if bound == nil {
		bound = Additive()
	}
	return &Checker{oracle: o, cfg: cfg, bound: bound}
}

// Bound exposes the delay bound used to build dropoff deadlines.
func (c *Checker) Bound() DelayBound { return c.bound }

// TravelTime forwards to the oracle.
func (c *Checker) TravelTime(a, b model.Location) (time.Duration, error) {
	return c.oracle.TravelTime(a, b)
}

// Stops returns the pickup and dropoff stops of r.
func (c *Checker) Stops(r model.Request) (model.Stop, model.Stop) {
	return model.PickupStop(r), model.DropoffStop(r, c.bound(r))
}

// Check returns the cheapest feasible route serving the committed stops of
// st plus reqs. ok is false when no feasible ordering was found. An error
// is returned only when the oracle fails.
func (c *Checker) Check(st State, reqs []model.Request) (model.Route, bool, error) {
	sorted := append([]model.Request(nil), reqs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	head := sorted
	var tail []model.Request
	if len(sorted) > c.cfg.EnumerationLimit {
		head, tail = sorted[:c.cfg.EnumerationLimit], sorted[c.cfg.EnumerationLimit:]
	}

	s := newSearch(c, st, head)
	if err := s.run(); err != nil {
		return model.Route{}, false, err
	}
	if !s.found {
		return model.Route{}, false, nil
	}
	stops, done := s.best, s.bestTime
	if len(tail) > 0 {
		var ok bool
		var err error
		stops, done, ok, err = c.insertAll(st, stops, tail)
		if err != nil || !ok {
			return model.Route{}, false, err
		}
	}
	cost := routeCost(st, stops, done)
	if c.cfg.Cost == CostDelay {
		var err error
		if cost, err = c.totalDelay(st, stops); err != nil {
			return model.Route{}, false, err
		}
	}
	return model.Route{Stops: stops, Cost: cost}, true, nil
}

// totalDelay sums how late each dropoff of stops arrives compared with its
// ideal time. Dropoffs without an ideal time count as on time.
func (c *Checker) totalDelay(st State, stops []model.Stop) (time.Duration, error) {
	loc, t := st.Location, st.Now.Add(st.Offset)
	var total time.Duration
	for _, s := range stops {
		d, err := c.oracle.TravelTime(loc, s.Location)
		if err != nil {
			return 0, err
		}
		arrive := c.arrive(t, d, s)
		if s.Kind == model.Dropoff && !s.Ideal.IsZero() && arrive.After(s.Ideal) {
			total += arrive.Sub(s.Ideal)
		}
		t = arrive.Add(c.dwell(s.Kind))
		loc = s.Location
	}
	return total, nil
}

// Evaluate walks stops in order from st and reports whether the ordering is
// feasible and when the last stop is reached.
func (c *Checker) Evaluate(st State, stops []model.Stop) (time.Time, bool, error) {
	loc, t, load := st.Location, st.Now.Add(st.Offset), st.Onboard
	for i, s := range stops {
		if s.Kind == model.Pickup {
			if load >= st.Capacity {
				return time.Time{}, false, nil
			}
			load++
		} else {
			load--
		}
		d, err := c.oracle.TravelTime(loc, s.Location)
		if err != nil {
			return time.Time{}, false, err
		}
		arrive := c.arrive(t, d, s)
		if arrive.After(s.Deadline) {
			return time.Time{}, false, nil
		}
		if i == len(stops)-1 {
			return arrive, true, nil
		}
		t = arrive.Add(c.dwell(s.Kind))
		loc = s.Location
	}
	return t, true, nil
}

func (c *Checker) arrive(t time.Time, d time.Duration, s model.Stop) time.Time {
	a := t.Add(d)
	if s.Kind == model.Pickup && a.Before(s.Earliest) {
		return s.Earliest
	}
	return a
}

func (c *Checker) dwell(k model.StopKind) time.Duration {
	if k == model.Pickup {
		return c.cfg.DwellPickup
	}
	return c.cfg.DwellDropoff
}

func routeCost(st State, stops []model.Stop, done time.Time) time.Duration {
	if len(stops) == 0 {
		return 0
	}
	return done.Sub(st.Now)
}

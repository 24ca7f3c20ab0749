// Package simulator replays a demand trace against the dispatch engine and
// moves the fleet along its assigned routes between cycles.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/ridepool/core/dispatch"
	"github.com/kilianp07/ridepool/core/dispatch/logging"
	coremetrics "github.com/kilianp07/ridepool/core/metrics"
	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/core/network"
	"github.com/kilianp07/ridepool/infra/logger"
)

// Simulator owns the fleet and request state between cycles and is the only
// writer of both.
type Simulator struct {
	cfg    Config
	engine *dispatch.Engine
	oracle network.Oracle
	store  logging.LogStore
	sink   coremetrics.MetricsSink
	log    logger.Logger

	vehicles []model.Vehicle
	pending  []model.Request // not yet released, by CreatedAt
	released map[int64]*model.Request
	order    []int64
	shared   map[int64]bool

	start, now, lastCreated time.Time
	passengerTime           time.Duration
	cycles                  int
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogStore persists every cycle record to st.
func WithLogStore(st logging.LogStore) Option {
	return func(s *Simulator) { s.store = st }
}

// WithMetricsSink sends the final statistics to sink.
func WithMetricsSink(sink coremetrics.MetricsSink) Option {
	return func(s *Simulator) { s.sink = sink }
}

// WithLogger sets the simulator logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// Report is the outcome of a run.
type Report struct {
	Stats    coremetrics.SimulationStats
	Cycles   int
	Requests []model.Request
	Vehicles []model.Vehicle
}

// New builds a simulator starting at start. Requests are released once the
// simulated clock reaches their CreatedAt.
func New(cfg Config, engine *dispatch.Engine, oracle network.Oracle, vehicles []model.Vehicle, requests []model.Request, start time.Time, opts ...Option) (*Simulator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	if engine == nil || oracle == nil {
		return nil, errors.New("simulator: engine and oracle are required")
	}
	s := &Simulator{
		cfg:      cfg,
		engine:   engine,
		oracle:   oracle,
		store:    logging.NopStore{},
		sink:     coremetrics.NopSink{},
		log:      logger.NopLogger{},
		released: make(map[int64]*model.Request, len(requests)),
		shared:   make(map[int64]bool),
		start:    start,
		now:      start,
	}
	for _, o := range opts {
		o(s)
	}

	seen := make(map[int64]bool, len(requests))
	for _, r := range requests {
		if seen[r.ID] {
			return nil, fmt.Errorf("simulator: duplicate request %d", r.ID)
		}
		seen[r.ID] = true
		r.Status = model.StatusWaiting
		s.pending = append(s.pending, r)
		if r.CreatedAt.After(s.lastCreated) {
			s.lastCreated = r.CreatedAt
		}
	}
	sort.SliceStable(s.pending, func(i, j int) bool { return s.pending[i].CreatedAt.Before(s.pending[j].CreatedAt) })
	for _, v := range vehicles {
		s.vehicles = append(s.vehicles, v.Clone())
	}
	if s.lastCreated.Before(start) {
		s.lastCreated = start
	}
	return s, nil
}

// Now returns the simulated clock.
func (s *Simulator) Now() time.Time { return s.now }

// Step releases due requests, runs one dispatch cycle, applies it and moves
// the fleet until the next cycle.
func (s *Simulator) Step(ctx context.Context) (dispatch.Assignment, error) {
	if err := s.release(); err != nil {
		return dispatch.Assignment{}, err
	}
	a, err := s.engine.RunCycle(ctx, s.vehicles, s.active(), s.now, s.oracle)
	if err != nil {
		return a, err
	}
	s.cycles++
	s.apply(a)
	if err := s.store.Append(ctx, logging.NewRecord(a)); err != nil {
		s.log.Warnf("cycle %s: log store: %v", a.CycleID, err)
	}
	if err := s.move(s.cfg.interval()); err != nil {
		return a, err
	}
	s.now = s.now.Add(s.cfg.interval())
	return a, nil
}

// Run steps until every request is released and resolved, or the drain
// period after the last request has elapsed.
func (s *Simulator) Run(ctx context.Context) (Report, error) {
	deadline := s.lastCreated.Add(time.Duration(s.cfg.DrainSeconds) * time.Second)
	for len(s.pending) > 0 || s.hasActive() {
		if s.now.After(deadline) {
			s.log.Warnf("simulation stopped at drain deadline with active requests")
			break
		}
		if _, err := s.Step(ctx); err != nil {
			return s.report(), err
		}
	}
	rep := s.report()
	if rec, ok := s.sink.(coremetrics.SimulationRecorder); ok {
		if err := rec.RecordSimulation(rep.Stats); err != nil {
			s.log.Warnf("record simulation stats: %v", err)
		}
	}
	s.log.Infow("simulation finished", map[string]any{
		"cycles":       rep.Cycles,
		"requests":     rep.Stats.Requests,
		"served":       rep.Stats.Served,
		"service_rate": rep.Stats.ServiceRate,
		"mean_wait":    rep.Stats.MeanWait.String(),
		"mean_delay":   rep.Stats.MeanDelay.String(),
	})
	return rep, nil
}

func (s *Simulator) release() error {
	i := 0
	for ; i < len(s.pending) && !s.pending[i].CreatedAt.After(s.now); i++ {
		r := s.pending[i]
		if r.DirectTime == 0 {
			d, err := s.oracle.TravelTime(r.Origin, r.Destination)
			if err != nil {
				return fmt.Errorf("request %d: %w", r.ID, err)
			}
			r.DirectTime = d
		}
		s.released[r.ID] = &r
		s.order = append(s.order, r.ID)
	}
	s.pending = s.pending[i:]
	return nil
}

func (s *Simulator) active() []model.Request {
	var out []model.Request
	for _, id := range s.order {
		if r := s.released[id]; r.Active() {
			out = append(out, *r)
		}
	}
	return out
}

func (s *Simulator) hasActive() bool {
	for _, r := range s.released {
		if r.Active() {
			return true
		}
	}
	return false
}

// apply commits the chosen routes. Unserved candidates leave the system.
func (s *Simulator) apply(a dispatch.Assignment) {
	for i := range s.vehicles {
		if t, ok := a.Trips[s.vehicles[i].ID]; ok {
			s.vehicles[i].Route = t.Route.Clone()
		}
	}
	for _, id := range a.Served {
		r, ok := s.released[id]
		if !ok {
			continue
		}
		if vid, ok := a.VehicleOf(id); ok {
			r.Status = model.StatusAssigned
			r.AssignedVehicle = vid
		}
	}
	for _, id := range a.Rejected {
		if r, ok := s.released[id]; ok {
			r.Status = model.StatusRejected
			r.AssignedVehicle = 0
		}
	}
}

func (s *Simulator) move(d time.Duration) error {
	for i := range s.vehicles {
		v := &s.vehicles[i]
		events, onboard, err := s.advance(v, s.now, d)
		s.passengerTime += onboard
		for _, ev := range events {
			s.serve(v, ev)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) serve(v *model.Vehicle, ev stopEvent) {
	r, ok := s.released[ev.stop.RequestID]
	if !ok {
		s.log.Warnf("vehicle %d served unknown request %d", v.ID, ev.stop.RequestID)
		return
	}
	switch ev.stop.Kind {
	case model.Pickup:
		r.Status = model.StatusPickedUp
		r.PickedUpAt = ev.at
		if len(ev.onboard) > 1 {
			for _, id := range ev.onboard {
				s.shared[id] = true
			}
		}
	case model.Dropoff:
		r.Status = model.StatusCompleted
		r.DroppedOffAt = ev.at
	}
}

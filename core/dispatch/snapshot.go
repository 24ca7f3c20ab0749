package dispatch

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/ridepool/core/feasibility"
	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/core/network"
)

// snapshot is the immutable view of the fleet a cycle works on.
type snapshot struct {
	now        time.Time
	states     []feasibility.State
	candidates []model.Request
	byID       map[int64]model.Request
	held       map[int64]bool
	incumbent  map[int64]int64
	locked     int
}

// prepare copies the inputs, fills request defaults and applies the
// reassignment policy. Picked-up requests never become candidates.
func (e *Engine) prepare(vehicles []model.Vehicle, requests []model.Request, now time.Time, oracle network.Oracle) (*snapshot, error) {
	s := &snapshot{
		now:       now,
		byID:      make(map[int64]model.Request, len(requests)),
		held:      make(map[int64]bool),
		incumbent: make(map[int64]int64),
	}

	fleet := make([]model.Vehicle, len(vehicles))
	owner := make(map[int64]int64)
	seen := make(map[int64]bool, len(vehicles))
	for i, v := range vehicles {
		if seen[v.ID] {
			return nil, fmt.Errorf("%w: duplicate vehicle %d", ErrInvariant, v.ID)
		}
		seen[v.ID] = true
		if err := v.Validate(e.cfg.Capacity); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		fleet[i] = v.Clone()
		for _, id := range fleet[i].Pending() {
			owner[id] = v.ID
		}
	}
	sort.Slice(fleet, func(i, j int) bool { return fleet[i].ID < fleet[j].ID })

	release := make(map[int64]map[int64]bool)
	for _, r := range requests {
		if _, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate request %d", ErrInvariant, r.ID)
		}
		r, err := e.withDefaults(r, oracle)
		if err != nil {
			return nil, err
		}
		s.byID[r.ID] = r
		switch r.Status {
		case model.StatusWaiting:
			s.candidates = append(s.candidates, r)
		case model.StatusAssigned:
			vid, ok := owner[r.ID]
			if !ok {
				e.log.Warnf("request %d assigned without a committed pickup, treating as waiting", r.ID)
				s.candidates = append(s.candidates, r)
				continue
			}
			if e.cfg.ReassignPolicy == PolicyLock {
				s.locked++
				continue
			}
			s.candidates = append(s.candidates, r)
			s.held[r.ID] = true
			s.incumbent[r.ID] = vid
			if release[vid] == nil {
				release[vid] = make(map[int64]bool)
			}
			release[vid][r.ID] = true
		}
	}
	sort.Slice(s.candidates, func(i, j int) bool { return s.candidates[i].ID < s.candidates[j].ID })

	for _, v := range fleet {
		if ids := release[v.ID]; len(ids) > 0 {
			kept := v.Route.Stops[:0]
			for _, st := range v.Route.Stops {
				if !ids[st.RequestID] {
					kept = append(kept, st)
				}
			}
			v.Route.Stops = kept
		}
		s.states = append(s.states, feasibility.StateOf(v, e.cfg.Capacity, now))
	}
	return s, nil
}

func (e *Engine) withDefaults(r model.Request, oracle network.Oracle) (model.Request, error) {
	if r.MaxWait == 0 {
		r.MaxWait = time.Duration(e.cfg.MaxWaitSeconds) * time.Second
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = time.Duration(e.cfg.MaxDelaySeconds) * time.Second
	}
	if r.DirectTime == 0 && r.Origin != r.Destination && r.Status != model.StatusPickedUp {
		d, err := oracle.TravelTime(r.Origin, r.Destination)
		if err != nil {
			return r, fmt.Errorf("%w: request %d: %w", ErrOracle, r.ID, err)
		}
		r.DirectTime = d
	}
	return r, nil
}

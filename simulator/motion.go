package simulator

import (
	"fmt"
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

// stopEvent is a stop served while moving.
type stopEvent struct {
	stop    model.Stop
	at      time.Time
	onboard []int64 // passengers aboard after the stop
}

// advance moves v along its route for budget starting at t. It follows
// shortest paths hop by hop; an interrupted hop leaves the vehicle heading
// to the hop's end with the remaining time in Offset. Dwell after a stop
// that is followed by another one is spent in Offset too, matching how
// routes are costed. onboardTime receives the passenger-seconds travelled.
func (s *Simulator) advance(v *model.Vehicle, t time.Time, budget time.Duration) ([]stopEvent, time.Duration, error) {
	var served []stopEvent
	var onboardTime time.Duration
	spend := func(d time.Duration) {
		onboardTime += time.Duration(len(v.Onboard)) * d
		budget -= d
		t = t.Add(d)
	}

	if v.Offset > 0 {
		if v.Offset >= budget {
			v.Offset -= budget
			spend(budget)
			return served, onboardTime, nil
		}
		spend(v.Offset)
		v.Offset = 0
	}

	for len(v.Route.Stops) > 0 && budget > 0 {
		next := v.Route.Stops[0]
		if v.Location != next.Location {
			path, err := s.oracle.ShortestPath(v.Location, next.Location)
			if err != nil {
				return served, onboardTime, fmt.Errorf("vehicle %d: %w", v.ID, err)
			}
			for i := 1; i < len(path); i++ {
				d, err := s.oracle.TravelTime(path[i-1], path[i])
				if err != nil {
					return served, onboardTime, fmt.Errorf("vehicle %d: %w", v.ID, err)
				}
				v.Location = path[i]
				if d > budget {
					v.Offset = d - budget
					spend(budget)
					return served, onboardTime, nil
				}
				spend(d)
			}
		}

		v.Route.Stops = v.Route.Stops[1:]
		switch next.Kind {
		case model.Pickup:
			v.Onboard = append(v.Onboard, next.RequestID)
		case model.Dropoff:
			v.Onboard = removeID(v.Onboard, next.RequestID)
		}
		served = append(served, stopEvent{stop: next, at: t, onboard: append([]int64(nil), v.Onboard...)})

		if len(v.Route.Stops) > 0 {
			if d := s.dwell(next.Kind); d > 0 {
				if d > budget {
					v.Offset = d - budget
					spend(budget)
					return served, onboardTime, nil
				}
				spend(d)
			}
		}
	}
	return served, onboardTime, nil
}

func (s *Simulator) dwell(k model.StopKind) time.Duration {
	d := s.engine.Config().Dwell
	if k == model.Pickup {
		return time.Duration(d.PickupSeconds) * time.Second
	}
	return time.Duration(d.DropoffSeconds) * time.Second
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

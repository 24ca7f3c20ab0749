package simulator

import (
	"time"

	coremetrics "github.com/kilianp07/ridepool/core/metrics"
	"github.com/kilianp07/ridepool/core/model"
)

// report computes the run statistics. Only requests created inside the
// window [start+warmup, lastCreated-cooldown] count; occupancy covers the
// whole run.
func (s *Simulator) report() Report {
	from := s.start.Add(time.Duration(s.cfg.WarmupSeconds) * time.Second)
	to := s.lastCreated.Add(-time.Duration(s.cfg.CooldownSeconds) * time.Second)

	var st coremetrics.SimulationStats
	var wait, ride, delay time.Duration
	var completed, sharedDrops int
	reqs := make([]model.Request, 0, len(s.order))
	for _, id := range s.order {
		r := *s.released[id]
		reqs = append(reqs, r)
		if r.CreatedAt.Before(from) || r.CreatedAt.After(to) {
			continue
		}
		st.Requests++
		if r.Status == model.StatusRejected {
			st.Rejected++
		}
		if r.PickedUpAt.IsZero() {
			continue
		}
		st.Served++
		wait += r.PickedUpAt.Sub(r.CreatedAt)
		if r.Status != model.StatusCompleted {
			continue
		}
		completed++
		d := r.DroppedOffAt.Sub(r.PickedUpAt)
		ride += d
		delay += d - r.DirectTime
		if s.shared[r.ID] {
			sharedDrops++
		}
	}
	if st.Requests > 0 {
		st.ServiceRate = float64(st.Served) / float64(st.Requests)
	}
	if st.Served > 0 {
		st.MeanWait = wait / time.Duration(st.Served)
	}
	if completed > 0 {
		st.MeanRideTime = ride / time.Duration(completed)
		st.MeanDelay = delay / time.Duration(completed)
		st.SharedRate = float64(sharedDrops) / float64(completed)
	}
	if elapsed := s.now.Sub(s.start); elapsed > 0 && len(s.vehicles) > 0 {
		st.MeanOccupancy = s.passengerTime.Seconds() / (elapsed.Seconds() * float64(len(s.vehicles)))
	}
	st.Time = s.now

	vs := make([]model.Vehicle, len(s.vehicles))
	for i, v := range s.vehicles {
		vs[i] = v.Clone()
	}
	return Report{Stats: st, Cycles: s.cycles, Requests: reqs, Vehicles: vs}
}

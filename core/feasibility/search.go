package feasibility

import (
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

// progress of a new request inside the search.
const (
	waiting int8 = iota
	riding
	served
)

// search enumerates stop orderings depth first. Branches are cut when a
// deadline or the capacity is violated, when a remaining stop can no longer
// be reached in time, or when the partial route is already no better than
// the incumbent.
type search struct {
	c     *Checker
	st    State
	reqs  []model.Request
	pick  []model.Stop
	drop  []model.Stop
	state []int8
	left  int // new requests not yet served

	seq      []model.Stop
	best     []model.Stop
	bestTime time.Time
	found    bool
}

func newSearch(c *Checker, st State, reqs []model.Request) *search {
	s := &search{
		c:     c,
		st:    st,
		reqs:  reqs,
		pick:  make([]model.Stop, len(reqs)),
		drop:  make([]model.Stop, len(reqs)),
		state: make([]int8, len(reqs)),
		left:  len(reqs),
		seq:   make([]model.Stop, 0, len(st.Committed)+2*len(reqs)),
	}
	for i, r := range reqs {
		s.pick[i], s.drop[i] = c.Stops(r)
	}
	return s
}

func (s *search) run() error {
	start := s.st.Now.Add(s.st.Offset)
	if len(s.st.Committed) == 0 && s.left == 0 {
		s.found, s.bestTime, s.best = true, start, nil
		return nil
	}
	return s.step(s.st.Location, start, s.st.Onboard, 0)
}

func (s *search) step(loc model.Location, t time.Time, load, ci int) error {
	if ci == len(s.st.Committed) && s.left == 0 {
		if !s.found || t.Before(s.bestTime) {
			s.found = true
			s.bestTime = t
			s.best = append(s.best[:0:0], s.seq...)
		}
		return nil
	}
	if ci < len(s.st.Committed) {
		if err := s.visit(loc, t, load, ci, s.st.Committed[ci], -1); err != nil {
			return err
		}
	}
	for i := range s.reqs {
		switch s.state[i] {
		case waiting:
			if err := s.visit(loc, t, load, ci, s.pick[i], i); err != nil {
				return err
			}
		case riding:
			if err := s.visit(loc, t, load, ci, s.drop[i], i); err != nil {
				return err
			}
		}
	}
	return nil
}

// visit extends the sequence with stop. req is the index of the new request
// the stop belongs to, or -1 for a committed stop.
func (s *search) visit(loc model.Location, t time.Time, load, ci int, stop model.Stop, req int) error {
	if stop.Kind == model.Pickup && load >= s.st.Capacity {
		return nil
	}
	d, err := s.c.oracle.TravelTime(loc, stop.Location)
	if err != nil {
		return err
	}
	arrive := s.c.arrive(t, d, stop)
	if arrive.After(stop.Deadline) {
		return nil
	}
	if s.found && !arrive.Before(s.bestTime) {
		return nil
	}

	nextLoad, nextCI := load+1, ci
	if stop.Kind == model.Dropoff {
		nextLoad = load - 1
	}
	var prev int8
	if req < 0 {
		nextCI++
	} else {
		prev = s.state[req]
		s.state[req]++
		if s.state[req] == served {
			s.left--
		}
	}
	defer func() {
		if req >= 0 {
			if s.state[req] == served {
				s.left++
			}
			s.state[req] = prev
		}
	}()

	last := nextCI == len(s.st.Committed) && s.left == 0
	depart := arrive
	if !last {
		depart = arrive.Add(s.c.dwell(stop.Kind))
		ok, err := s.reachable(stop.Location, depart, nextCI)
		if err != nil || !ok {
			return err
		}
	}

	s.seq = append(s.seq, stop)
	err = s.step(stop.Location, depart, nextLoad, nextCI)
	s.seq = s.seq[:len(s.seq)-1]
	return err
}

// reachable reports whether every stop still to be served can be reached
// directly from loc by its deadline. With travel times obeying the triangle
// inequality, failing this test means no completion is feasible.
func (s *search) reachable(loc model.Location, t time.Time, ci int) (bool, error) {
	check := func(stop model.Stop) (bool, error) {
		d, err := s.c.oracle.TravelTime(loc, stop.Location)
		if err != nil {
			return false, err
		}
		return !t.Add(d).After(stop.Deadline), nil
	}
	for _, stop := range s.st.Committed[ci:] {
		if ok, err := check(stop); err != nil || !ok {
			return false, err
		}
	}
	for i := range s.reqs {
		var stop model.Stop
		switch s.state[i] {
		case waiting:
			stop = s.pick[i]
		case riding:
			stop = s.drop[i]
		default:
			continue
		}
		if ok, err := check(stop); err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

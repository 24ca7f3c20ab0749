package feasibility

import (
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

// insertAll adds each request of tail to base by cheapest insertion. At every
// round the request whose best pickup/dropoff placement finishes earliest is
// committed; ties keep the lower request ID and the earlier positions.
func (c *Checker) insertAll(st State, base []model.Stop, tail []model.Request) ([]model.Stop, time.Time, bool, error) {
	route := append([]model.Stop(nil), base...)
	var done time.Time
	pending := append([]model.Request(nil), tail...)
	for len(pending) > 0 {
		bestIdx := -1
		var bestRoute []model.Stop
		var bestDone time.Time
		for k, r := range pending {
			cand, t, ok, err := c.bestInsertion(st, route, r)
			if err != nil {
				return nil, time.Time{}, false, err
			}
			if !ok {
				return nil, time.Time{}, false, nil
			}
			if bestIdx < 0 || t.Before(bestDone) {
				bestIdx, bestRoute, bestDone = k, cand, t
			}
		}
		route, done = bestRoute, bestDone
		pending = append(pending[:bestIdx], pending[bestIdx+1:]...)
	}
	return route, done, true, nil
}

// bestInsertion tries every position pair i <= j for r's pickup and dropoff.
func (c *Checker) bestInsertion(st State, route []model.Stop, r model.Request) ([]model.Stop, time.Time, bool, error) {
	pick, drop := c.Stops(r)
	var best []model.Stop
	var bestDone time.Time
	found := false
	n := len(route)
	cand := make([]model.Stop, n+2)
	for i := 0; i <= n; i++ {
		for j := i; j <= n; j++ {
			copy(cand, route[:i])
			cand[i] = pick
			copy(cand[i+1:], route[i:j])
			cand[j+1] = drop
			copy(cand[j+2:], route[j:])
			t, ok, err := c.Evaluate(st, cand)
			if err != nil {
				return nil, time.Time{}, false, err
			}
			if ok && (!found || t.Before(bestDone)) {
				found = true
				bestDone = t
				best = append(best[:0], cand...)
			}
		}
	}
	return best, bestDone, found, nil
}

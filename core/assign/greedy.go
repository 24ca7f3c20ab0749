package assign

import (
	"context"
	"sort"
)

// Greedy picks columns by decreasing savings over the slack columns they
// replace. It is fast and integral but not optimal.
type Greedy struct{}

func (Greedy) Solve(ctx context.Context, p Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}
	return greedy(p), ctx.Err()
}

func greedy(p Problem) Solution {
	rows := p.columnRows()
	slack := p.isSlack()

	type cand struct {
		col  int
		gain float64
	}
	var cands []cand
	for c := range p.Cost {
		if slack[c] {
			continue
		}
		g := -p.Cost[c]
		for _, r := range rows[c] {
			g += p.Cost[p.Slack[r]]
		}
		if g > 0 {
			cands = append(cands, cand{col: c, gain: g})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].gain > cands[j].gain })

	covered := make([]bool, len(p.Rows))
	var sel []int
	for _, c := range cands {
		free := true
		for _, r := range rows[c.col] {
			if covered[r] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for _, r := range rows[c.col] {
			covered[r] = true
		}
		sel = append(sel, c.col)
	}
	for r, ok := range covered {
		if !ok {
			sel = append(sel, p.Slack[r])
		}
	}
	sort.Ints(sel)
	obj := 0.0
	for _, c := range sel {
		obj += p.Cost[c]
	}
	return Solution{Selected: sel, Objective: obj}
}

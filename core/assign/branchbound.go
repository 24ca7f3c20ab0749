package assign

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	defaultMaxNodes  = 5000
	defaultTolerance = 1e-7
	integralEps      = 1e-6
)

// lpSolve solves min c·x s.t. Ax = b, x >= 0. It can be overridden in tests.
var lpSolve = func(c []float64, A mat.Matrix, b []float64, tol float64) (float64, []float64, error) {
	return lp.Simplex(c, A, b, tol, nil)
}

// BranchAndBound solves the problem exactly with LP relaxations from gonum
// and depth-first branching on fractional non-slack columns. The greedy
// solution seeds the incumbent, so a feasible answer always exists: when a
// relaxation fails or the node budget runs out the best integral solution
// found so far is returned with Optimal unset.
type BranchAndBound struct {
	// MaxNodes bounds the number of LP relaxations solved.
	MaxNodes  int     `json:"max_nodes"`
	Tolerance float64 `json:"tolerance"`
}

type bbState struct {
	p     Problem
	rows  [][]int
	slack []bool
	tol   float64
	max   int

	nodes   int
	best    []int
	bestObj float64
	limited bool
	// lpErr stops the search; the incumbent is still returned.
	lpErr error
}

func (s *BranchAndBound) Solve(ctx context.Context, p Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{}, fmt.Errorf("%w: %v", ErrSolverFailed, err)
	}
	st := &bbState{
		p:     p,
		rows:  p.columnRows(),
		slack: p.isSlack(),
		tol:   s.Tolerance,
		max:   s.MaxNodes,
	}
	if st.tol <= 0 {
		st.tol = defaultTolerance
	}
	if st.max <= 0 {
		st.max = defaultMaxNodes
	}
	seed := greedy(p)
	st.best, st.bestObj = seed.Selected, seed.Objective

	if len(p.Rows) > 0 {
		banned := make([]bool, len(p.Cost))
		covered := make([]bool, len(p.Rows))
		if err := st.branch(ctx, banned, covered, nil, 0); err != nil {
			return Solution{}, err
		}
	}
	sel := append([]int(nil), st.best...)
	sort.Ints(sel)
	return Solution{Selected: sel, Objective: st.bestObj, Optimal: !st.limited, Nodes: st.nodes, Err: st.lpErr}, nil
}

func (s *bbState) branch(ctx context.Context, banned, covered []bool, chosen []int, fixed float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var openRows []int
	for r, c := range covered {
		if !c {
			openRows = append(openRows, r)
		}
	}
	if len(openRows) == 0 {
		s.offer(chosen, fixed)
		return nil
	}
	if s.lpErr != nil {
		return nil
	}
	if s.nodes >= s.max {
		s.limited = true
		return nil
	}
	s.nodes++

	cols, x, obj, err := s.relax(banned, covered, openRows)
	if err != nil {
		s.limited, s.lpErr = true, err
		return nil
	}
	if fixed+obj >= s.bestObj-integralEps {
		return nil
	}

	pick, frac := -1, math.Inf(1)
	for i, col := range cols {
		if s.slack[col] {
			continue
		}
		v := x[i]
		if v > integralEps && v < 1-integralEps {
			if d := math.Abs(v - 0.5); d < frac {
				pick, frac = col, d
			}
		}
	}
	if pick < 0 {
		sol := append([]int(nil), chosen...)
		val := fixed
		for i, col := range cols {
			if x[i] > 0.5 {
				sol = append(sol, col)
				val += s.p.Cost[col]
			}
		}
		s.offer(sol, val)
		return nil
	}

	// x[pick] = 1
	nextCovered := append([]bool(nil), covered...)
	for _, r := range s.rows[pick] {
		nextCovered[r] = true
	}
	nextChosen := append(append([]int(nil), chosen...), pick)
	if err := s.branch(ctx, banned, nextCovered, nextChosen, fixed+s.p.Cost[pick]); err != nil {
		return err
	}

	// x[pick] = 0
	nextBanned := append([]bool(nil), banned...)
	nextBanned[pick] = true
	return s.branch(ctx, nextBanned, covered, chosen, fixed)
}

func (s *bbState) offer(sol []int, val float64) {
	if val < s.bestObj-integralEps {
		s.best = append([]int(nil), sol...)
		s.bestObj = val
	}
}

// relax solves the LP relaxation restricted to the open rows and to the
// columns that are not banned and touch only open rows.
func (s *bbState) relax(banned, covered []bool, openRows []int) ([]int, []float64, float64, error) {
	rowIdx := make(map[int]int, len(openRows))
	for i, r := range openRows {
		rowIdx[r] = i
	}
	var cols []int
	for c := range s.p.Cost {
		if banned[c] || len(s.rows[c]) == 0 {
			continue
		}
		ok := true
		for _, r := range s.rows[c] {
			if covered[r] {
				ok = false
				break
			}
		}
		if ok {
			cols = append(cols, c)
		}
	}
	A := mat.NewDense(len(openRows), len(cols), nil)
	cost := make([]float64, len(cols))
	for j, c := range cols {
		cost[j] = s.p.Cost[c]
		for _, r := range s.rows[c] {
			A.Set(rowIdx[r], j, 1)
		}
	}
	b := make([]float64, len(openRows))
	for i := range b {
		b[i] = 1
	}
	obj, x, err := lpSolve(cost, A, b, s.tol)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return nil, nil, 0, fmt.Errorf("%w: relaxation infeasible", ErrSolverFailed)
		}
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrSolverFailed, err)
	}
	return cols, x, obj, nil
}

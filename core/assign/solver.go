// Package assign selects one trip per vehicle from the RTV graph by solving
// a set-partitioning integer program.
package assign

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/ridepool/core/factory"
)

// ErrSolverFailed is returned when no integral solution could be produced.
var ErrSolverFailed = errors.New("assignment solver failed")

// Problem is a set-partitioning program: pick a subset of columns so that
// every row is covered exactly once, at minimum total cost.
type Problem struct {
	Cost []float64
	// Rows lists, for each row, the columns covering it.
	Rows [][]int
	// Slack holds, for each row, a column covering that row only. Selecting
	// every slack column is always a feasible solution.
	Slack []int
}

// Solution lists the selected columns in ascending order.
type Solution struct {
	Selected  []int
	Objective float64
	// Optimal is false when the solver stopped early.
	Optimal bool
	Nodes   int
	// Err records why the search stopped early, if it did.
	Err error
}

// Solver solves set-partitioning problems. Implementations must return an
// integral solution or an error.
type Solver interface {
	Solve(ctx context.Context, p Problem) (Solution, error)
}

// Validate checks that every row has a private slack column.
func (p Problem) Validate() error {
	if len(p.Slack) != len(p.Rows) {
		return fmt.Errorf("%d rows but %d slack columns", len(p.Rows), len(p.Slack))
	}
	owner := make(map[int]int, len(p.Slack))
	for r, c := range p.Slack {
		if c < 0 || c >= len(p.Cost) {
			return fmt.Errorf("row %d: slack column %d out of range", r, c)
		}
		if prev, dup := owner[c]; dup {
			return fmt.Errorf("rows %d and %d share slack column %d", prev, r, c)
		}
		owner[c] = r
	}
	for r, cols := range p.Rows {
		found := false
		for _, c := range cols {
			if c < 0 || c >= len(p.Cost) {
				return fmt.Errorf("row %d: column %d out of range", r, c)
			}
			if c == p.Slack[r] {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("row %d: slack column %d not listed", r, p.Slack[r])
		}
	}
	return nil
}

// columnRows inverts Rows.
func (p Problem) columnRows() [][]int {
	out := make([][]int, len(p.Cost))
	for r, cols := range p.Rows {
		for _, c := range cols {
			out[c] = append(out[c], r)
		}
	}
	return out
}

func (p Problem) isSlack() []bool {
	out := make([]bool, len(p.Cost))
	for _, c := range p.Slack {
		out[c] = true
	}
	return out
}

var solverRegistry = factory.NewRegistry[Solver]()

// RegisterSolver adds a solver factory identified by name.
func RegisterSolver(name string, f factory.Factory[Solver]) error {
	return solverRegistry.Register(name, f)
}

// NewSolver builds the configured solver. An empty type selects branch and bound.
func NewSolver(cfg factory.ModuleConfig) (Solver, error) {
	if cfg.Type == "" {
		cfg.Type = "branch_and_bound"
	}
	return solverRegistry.Create(cfg)
}

func init() {
	_ = RegisterSolver("branch_and_bound", func(conf map[string]any) (Solver, error) {
		var c BranchAndBound
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return &c, nil
	})
	_ = RegisterSolver("greedy", func(map[string]any) (Solver, error) {
		return Greedy{}, nil
	})
}

package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/ridepool/core/assign"
	"github.com/kilianp07/ridepool/core/feasibility"
)

var (
	// ErrOracle reports a network oracle failure.
	ErrOracle = errors.New("network oracle failed")
	// ErrInvariant reports an inconsistent snapshot or graph.
	ErrInvariant = errors.New("dispatch invariant violated")
	// ErrSolver reports that no integral assignment could be produced.
	ErrSolver = assign.ErrSolverFailed
)

// Phases of a cycle, used in errors, logs and metrics.
const (
	PhasePrepare = "prepare"
	PhaseRV      = "rv"
	PhaseRTV     = "rtv"
	PhaseSolve   = "solve"
)

// CycleError is returned when a cycle aborts.
type CycleError struct {
	CycleID string
	Phase   string
	Err     error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %s aborted in %s: %v", e.CycleID, e.Phase, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// classify attaches the failure category to err.
func classify(phase string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrInvariant):
		return err
	case errors.Is(err, feasibility.ErrCommitted):
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	case phase == PhaseSolve:
		if errors.Is(err, ErrSolver) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSolver, err)
	case errors.Is(err, ErrOracle):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrOracle, err)
	}
}

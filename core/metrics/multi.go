package metrics

// MultiSink fans records out to multiple sinks. Optional recorders are
// forwarded only to the sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCycle forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordCycle(st CycleStats) error {
	for _, s := range m.Sinks {
		if err := s.RecordCycle(st); err != nil {
			return err
		}
	}
	return nil
}

// RecordRejection forwards rejection events.
func (m *MultiSink) RecordRejection(ev RejectionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RejectionRecorder); ok {
			if err := rec.RecordRejection(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSolver forwards solver statistics.
func (m *MultiSink) RecordSolver(ev SolverEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SolverRecorder); ok {
			if err := rec.RecordSolver(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCycleFailure forwards aborted cycles.
func (m *MultiSink) RecordCycleFailure(ev CycleFailureEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CycleFailureRecorder); ok {
			if err := rec.RecordCycleFailure(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSimulation forwards simulation statistics.
func (m *MultiSink) RecordSimulation(st SimulationStats) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SimulationRecorder); ok {
			if err := rec.RecordSimulation(st); err != nil {
				return err
			}
		}
	}
	return nil
}

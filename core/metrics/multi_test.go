package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordCycle(CycleStats) error {
	r.count++
	return nil
}

func (r *recordSink) RecordRejection(RejectionEvent) error {
	r.count++
	return nil
}

// cycleOnly implements no optional recorder.
type cycleOnly struct{ count int }

func (c *cycleOnly) RecordCycle(CycleStats) error {
	c.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	s3 := &cycleOnly{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordCycle(CycleStats{}); err != nil {
		t.Fatalf("record cycle: %v", err)
	}
	if err := m.RecordRejection(RejectionEvent{}); err != nil {
		t.Fatalf("record rejection: %v", err)
	}
	if err := m.RecordSimulation(SimulationStats{}); err != nil {
		t.Fatalf("record simulation: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("records not forwarded")
	}
	if s3.count != 1 {
		t.Fatalf("expected only the cycle record, got %d", s3.count)
	}
}

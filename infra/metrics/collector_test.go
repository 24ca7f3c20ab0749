package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/ridepool/core/events"
	coremetrics "github.com/kilianp07/ridepool/core/metrics"
	"github.com/kilianp07/ridepool/internal/eventbus"
)

type memSink struct {
	mu         sync.Mutex
	cycles     []coremetrics.CycleStats
	rejections []coremetrics.RejectionEvent
	failures   []coremetrics.CycleFailureEvent
}

func (m *memSink) RecordCycle(st coremetrics.CycleStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles = append(m.cycles, st)
	return nil
}

func (m *memSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, ev)
	return nil
}

func (m *memSink) RecordCycleFailure(ev coremetrics.CycleFailureEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, ev)
	return nil
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.New()
	sink := &memSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink)

	bus.Publish(events.CycleEvent{CycleID: "c1", Served: 2, Rejected: 1})
	bus.Publish(events.RejectionEvent{CycleID: "c1", RequestID: 7, Reason: events.ReasonNoVehicle})
	bus.Publish(events.SolverEvent{CycleID: "c1", Nodes: 3})
	bus.Publish(events.CycleFailedEvent{CycleID: "c2", Phase: "rv", Err: errors.New("down")})

	deadline := time.After(2 * time.Second)
	for {
		sink.mu.Lock()
		n := len(sink.cycles) + len(sink.rejections) + len(sink.failures)
		sink.mu.Unlock()
		if n == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("events not collected, got %d", n)
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
	bus.Close()

	if sink.cycles[0].Served != 2 || sink.rejections[0].RequestID != 7 {
		t.Fatalf("unexpected records %+v %+v", sink.cycles, sink.rejections)
	}
	if sink.failures[0].Error != "down" || sink.failures[0].Phase != "rv" {
		t.Fatalf("unexpected failure %+v", sink.failures[0])
	}
}

func TestStartEventCollector_NilBus(t *testing.T) {
	select {
	case <-StartEventCollector(context.Background(), nil, &memSink{}):
	case <-time.After(time.Second):
		t.Fatal("collector without bus should stop immediately")
	}
}

package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/ridepool/core/events"
	coremetrics "github.com/kilianp07/ridepool/core/metrics"
	"github.com/kilianp07/ridepool/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// dispatch events. It stops when the context is canceled or the bus closes.
// The returned channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.CycleEvent:
		_ = sink.RecordCycle(coremetrics.CycleStats{
			CycleID:  e.CycleID,
			Time:     e.Time,
			Vehicles: e.Vehicles,
			Requests: e.Requests,
			Served:   e.Served,
			Rejected: e.Rejected,
			RVEdges:  e.RVEdges,
			RREdges:  e.RREdges,
			Trips:    e.Trips,
			Duration: e.Duration,
		})
	case events.RejectionEvent:
		if r, ok := sink.(coremetrics.RejectionRecorder); ok {
			_ = r.RecordRejection(coremetrics.RejectionEvent{
				CycleID:   e.CycleID,
				RequestID: e.RequestID,
				Reason:    e.Reason,
				Time:      time.Now(),
			})
		}
	case events.SolverEvent:
		if r, ok := sink.(coremetrics.SolverRecorder); ok {
			_ = r.RecordSolver(coremetrics.SolverEvent{
				CycleID:   e.CycleID,
				Nodes:     e.Nodes,
				Optimal:   e.Optimal,
				Objective: e.Objective,
				Time:      time.Now(),
			})
		}
	case events.CycleFailedEvent:
		if r, ok := sink.(coremetrics.CycleFailureRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			_ = r.RecordCycleFailure(coremetrics.CycleFailureEvent{
				CycleID: e.CycleID,
				Phase:   e.Phase,
				Error:   errStr,
				Time:    e.Time,
			})
		}
	}
}

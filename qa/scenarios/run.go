package scenarios

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/ridepool/core/dispatch"
	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/infra/logger"
	"github.com/kilianp07/ridepool/infra/metrics"
	"github.com/kilianp07/ridepool/infra/mqtt"
	"github.com/kilianp07/ridepool/internal/eventbus"
	"github.com/kilianp07/ridepool/simulator"
)

// Result is the outcome of a scenario run.
type Result struct {
	Report    simulator.Report
	Published int
	Registry  *prometheus.Registry
}

// Count returns how many requests ended with status st.
func (r Result) Count(st model.RequestStatus) int {
	n := 0
	for _, req := range r.Report.Requests {
		if req.Status == st {
			n++
		}
	}
	return n
}

// Run replays sc through the simulator with an in-memory event pipeline:
// metrics go to a private Prometheus registry and routes to a mock
// publisher.
func Run(ctx context.Context, sc *Scenario, log logger.Logger, opts ...simulator.Option) (Result, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	oracle, err := sc.Oracle()
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	cfg, err := sc.DispatchConfig()
	if err != nil {
		return Result{}, err
	}
	solver, err := sc.NewSolver()
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		return Result{}, fmt.Errorf("prom sink: %w", err)
	}
	pub := mqtt.NewMockPublisher()
	for _, id := range sc.FailVehicles {
		pub.FailIDs[id] = true
	}

	bus := eventbus.New()
	collected := metrics.StartEventCollector(ctx, bus, sink)
	forwarded := mqtt.StartRouteForwarder(ctx, bus, pub, log)

	engine, err := dispatch.NewEngine(cfg, solver, bus, log)
	if err != nil {
		bus.Close()
		return Result{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	simCfg := simulator.Config{IntervalSeconds: sc.IntervalSeconds}
	opts = append([]simulator.Option{simulator.WithMetricsSink(sink), simulator.WithLogger(log)}, opts...)
	sim, err := simulator.New(simCfg, engine, oracle, sc.Fleet(), sc.Demand(Epoch), Epoch, opts...)
	if err != nil {
		bus.Close()
		return Result{}, err
	}
	rep, runErr := sim.Run(ctx)

	// Closing the bus lets both consumers drain what is buffered.
	bus.Close()
	<-collected
	<-forwarded

	return Result{Report: rep, Published: pub.Published(), Registry: reg}, runErr
}

// RunScenario runs sc and checks its expectations.
func RunScenario(t *testing.T, sc *Scenario) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := Run(ctx, sc, logger.NopLogger{})
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	st := res.Report.Stats
	exp := sc.Expected
	if exp.Served != nil && st.Served != *exp.Served {
		t.Errorf("scenario %s expected %d served, got %d", sc.Name, *exp.Served, st.Served)
	}
	if exp.Rejected != nil && st.Rejected != *exp.Rejected {
		t.Errorf("scenario %s expected %d rejected, got %d", sc.Name, *exp.Rejected, st.Rejected)
	}
	if exp.Completed != nil {
		if got := res.Count(model.StatusCompleted); got != *exp.Completed {
			t.Errorf("scenario %s expected %d completed, got %d", sc.Name, *exp.Completed, got)
		}
	}
	if exp.Shared != nil {
		shared := int(st.SharedRate*float64(res.Count(model.StatusCompleted)) + 0.5)
		if shared < *exp.Shared {
			t.Errorf("scenario %s expected at least %d shared, got %d", sc.Name, *exp.Shared, shared)
		}
	}
	return res
}

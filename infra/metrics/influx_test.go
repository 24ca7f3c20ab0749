package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ridepool/core/metrics"
)

// captureServer records the line protocol bodies it receives.
func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func lineOf(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordCycle(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	st := coremetrics.CycleStats{
		CycleID: "c1", Time: now, Vehicles: 2, Requests: 3, Served: 2, Rejected: 1,
		RVEdges: 4, RREdges: 1, Trips: 7, Duration: 1500 * time.Microsecond,
	}
	if err := sink.RecordCycle(st); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("dispatch_cycle").
		AddTag("cycle_id", "c1").
		AddTag("component", "dispatch_engine").
		AddField("vehicles", 2).
		AddField("requests", 3).
		AddField("served", 2).
		AddField("rejected", 1).
		AddField("rv_edges", 4).
		AddField("rr_edges", 1).
		AddField("trips", 7).
		AddField("duration_ms", 1.5).
		SetTime(now)
	got := bodies()
	if len(got) != 1 || got[0] != lineOf(p) {
		t.Errorf("unexpected body: %#v", got)
	}
}

func TestInfluxSink_RecordRejection(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordRejection(coremetrics.RejectionEvent{CycleID: "c1", RequestID: 42, Reason: "no_vehicle", Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("request_rejected").
		AddTag("cycle_id", "c1").
		AddTag("reason", "no_vehicle").
		AddField("request_id", "42").
		SetTime(now)
	got := bodies()
	if len(got) != 1 || got[0] != lineOf(p) {
		t.Errorf("bodies: %#v", got)
	}
}

func TestInfluxSink_RecordSimulation(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	st := coremetrics.SimulationStats{
		Requests: 10, Served: 8, Rejected: 2, ServiceRate: 0.8,
		MeanWait: 90 * time.Second, MeanRideTime: 5 * time.Minute, MeanDelay: time.Minute,
		MeanOccupancy: 1.25, SharedRate: 0.5, Time: now,
	}
	if err := sink.RecordSimulation(st); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("simulation_stats").
		AddTag("component", "simulator").
		AddField("requests", 10).
		AddField("served", 8).
		AddField("rejected", 2).
		AddField("service_rate", 0.8).
		AddField("mean_wait_s", 90.0).
		AddField("mean_ride_s", 300.0).
		AddField("mean_delay_s", 60.0).
		AddField("mean_occupancy", 1.25).
		AddField("shared_rate", 0.5).
		SetTime(now)
	got := bodies()
	if len(got) != 1 || got[0] != lineOf(p) {
		t.Errorf("bodies: %#v", got)
	}
}

func TestInfluxSink_RecordCycleFailure(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	if err := sink.RecordCycleFailure(coremetrics.CycleFailureEvent{CycleID: "c1", Phase: "rv", Error: "boom", Time: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got := bodies()
	if len(got) != 1 || !strings.HasPrefix(got[0], "dispatch_cycle_failed,cycle_id=c1,phase=rv ") {
		t.Errorf("bodies: %#v", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

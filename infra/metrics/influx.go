package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ridepool/core/metrics"
	"github.com/kilianp07/ridepool/infra/logger"
)

// InfluxSink writes dispatch and simulation records to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCycle writes one dispatch_cycle point.
func (s *InfluxSink) RecordCycle(st coremetrics.CycleStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_cycle").
		AddTag("cycle_id", st.CycleID).
		AddTag("component", "dispatch_engine").
		AddField("vehicles", st.Vehicles).
		AddField("requests", st.Requests).
		AddField("served", st.Served).
		AddField("rejected", st.Rejected).
		AddField("rv_edges", st.RVEdges).
		AddField("rr_edges", st.RREdges).
		AddField("trips", st.Trips).
		AddField("duration_ms", round3(st.Duration.Seconds()*1000)).
		SetTime(st.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRejection writes a rejected request.
func (s *InfluxSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("request_rejected").
		AddTag("cycle_id", ev.CycleID).
		AddTag("reason", ev.Reason).
		AddField("request_id", strconv.FormatInt(ev.RequestID, 10)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSolver writes the solver statistics of a cycle.
func (s *InfluxSink) RecordSolver(ev coremetrics.SolverEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment_solver").
		AddTag("cycle_id", ev.CycleID).
		AddTag("optimal", strconv.FormatBool(ev.Optimal)).
		AddField("nodes", ev.Nodes).
		AddField("objective", round3(ev.Objective)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCycleFailure writes an aborted cycle.
func (s *InfluxSink) RecordCycleFailure(ev coremetrics.CycleFailureEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_cycle_failed").
		AddTag("cycle_id", ev.CycleID).
		AddTag("phase", ev.Phase).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSimulation writes the aggregate statistics of a simulation run.
func (s *InfluxSink) RecordSimulation(st coremetrics.SimulationStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_stats").
		AddTag("component", "simulator").
		AddField("requests", st.Requests).
		AddField("served", st.Served).
		AddField("rejected", st.Rejected).
		AddField("service_rate", round3(st.ServiceRate)).
		AddField("mean_wait_s", round3(st.MeanWait.Seconds())).
		AddField("mean_ride_s", round3(st.MeanRideTime.Seconds())).
		AddField("mean_delay_s", round3(st.MeanDelay.Seconds())).
		AddField("mean_occupancy", round3(st.MeanOccupancy)).
		AddField("shared_rate", round3(st.SharedRate)).
		SetTime(st.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

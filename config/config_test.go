package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/ridepool/core/dispatch"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `dispatch:
  capacity: 2
  rv_k: 12
  reassign_policy: reoffer
  delay_bound:
    mode: multiplicative
    factor: 0.5
  dwell:
    pickup_seconds: 30
solver:
  type: branch_and_bound
  conf:
    max_nodes: 500
simulation:
  scenario: qa/scenarios/testdata/shared_ride.yaml
  warmup_seconds: 600
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":2112"
logging:
  backend: sqlite
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
sentry:
  environment: test
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"capacity", cfg.Dispatch.Capacity, 2},
		{"rv_k", cfg.Dispatch.RVK, 12},
		{"rr_k default", cfg.Dispatch.RRK, 30},
		{"policy", cfg.Dispatch.ReassignPolicy, dispatch.PolicyReoffer},
		{"delay_bound", cfg.Dispatch.DelayBound.Factor, 0.5},
		{"dwell", cfg.Dispatch.Dwell.PickupSeconds, 30},
		{"solver", cfg.Solver.Type, "branch_and_bound"},
		{"interval default", cfg.Simulation.IntervalSeconds, 60},
		{"warmup", cfg.Simulation.WarmupSeconds, 600},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":2112"},
		{"logging backend", cfg.Logging.Backend, "sqlite"},
		{"logging path default", cfg.Logging.Path, "cycles.db"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"topic prefix default", cfg.MQTT.RouteTopicPrefix, "vehicles/"},
		{"sentry env", cfg.Sentry.Environment, "test"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"simulation": {"scenario": "s.yaml"}, "dispatch": {"rv_k": 5}}`)
	t.Setenv("K_DISPATCH__RV_K", "10")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Dispatch.RVK != 10 {
		t.Fatalf("expected env override, got %d", cfg.Dispatch.RVK)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]struct {
		name string
		data string
	}{
		"format":   {"config.toml", `x = 1`},
		"policy":   {"config.yaml", "simulation: {scenario: s.yaml}\ndispatch: {reassign_policy: steal}\n"},
		"solver":   {"config.yaml", "simulation: {scenario: s.yaml}\nsolver: {type: quantum}\n"},
		"backend":  {"config.yaml", "simulation: {scenario: s.yaml}\nlogging: {backend: kafka}\n"},
		"workload": {"config.yaml", "dispatch: {capacity: 2}\n"},
		"fleet":    {"config.yaml", "simulation: {network: net.yaml, demand: {horizon_seconds: 60}}\n"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, c.name, c.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSimulationConfig_Generated(t *testing.T) {
	c := SimulationConfig{Network: "net.yaml"}
	c.Fleet.Size = 3
	c.Demand.HorizonSeconds = 3600
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Simulator().IntervalSeconds; got != 60 {
		t.Fatalf("interval %d", got)
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/ridepool/core/dispatch/logging"
)

var shared = filepath.Join("..", "qa", "scenarios", "testdata", "shared_ride.yaml")

func execute(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.Bytes()
}

func TestCycleCommand(t *testing.T) {
	var rec logging.CycleRecord
	if err := json.Unmarshal(execute(t, "cycle", shared), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rec.Served) != 2 || len(rec.Rejected) != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(rec.Trips) != 1 || rec.Trips[0].VehicleID != 1 {
		t.Fatalf("unexpected trips %+v", rec.Trips)
	}
}

func TestSimulateCommand(t *testing.T) {
	var st struct {
		Served      int
		ServiceRate float64
	}
	if err := json.Unmarshal(execute(t, "simulate", shared), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Served != 2 || st.ServiceRate != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestCommandsRequireScenario(t *testing.T) {
	rootCmd.SetArgs([]string{"cycle"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected argument error")
	}
}

func TestRunThenRecords(t *testing.T) {
	dir := t.TempDir()
	scenario, err := filepath.Abs(shared)
	if err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "config.yaml")
	body := "simulation:\n  scenario: " + scenario + "\nlogging:\n  backend: jsonl\n  path: " + filepath.Join(dir, "cycles.jsonl") + "\n"
	if err := os.WriteFile(cfg, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	defer func() { cfgPath = "config.yaml" }()

	execute(t, "run", "-c", cfg)

	var recs []logging.CycleRecord
	if err := json.Unmarshal(execute(t, "records", "-c", cfg, "--request", "2"), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected records for request 2")
	}
	for _, r := range recs {
		if !containsID(r.Served, 2) && !containsID(r.Rejected, 2) {
			t.Fatalf("record %s does not mention request 2", r.CycleID)
		}
	}

	rootCmd.SetArgs([]string{"records", "-c", cfg, "--since", "yesterday"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected --since parse error")
	}
	recordsFlags.since = ""
	recordsFlags.request = 0
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

package simulator

import (
	"testing"
	"time"
)

func TestGenerateFleetCount(t *testing.T) {
	vs := GenerateFleet(FleetConfig{Size: 5, Nodes: 10, Capacity: 2, Seed: 1})
	if len(vs) != 5 {
		t.Fatalf("expected 5 vehicles, got %d", len(vs))
	}
	if vs[0].ID != 1 || vs[4].ID != 5 {
		t.Fatalf("unexpected ids %d %d", vs[0].ID, vs[4].ID)
	}
	for _, v := range vs {
		if v.Location < 0 || v.Location >= 10 || v.Capacity != 2 {
			t.Fatalf("bad vehicle %+v", v)
		}
	}
	again := GenerateFleet(FleetConfig{Size: 5, Nodes: 10, Capacity: 2, Seed: 1})
	for i := range vs {
		if vs[i].Location != again[i].Location {
			t.Fatal("same seed must give the same fleet")
		}
	}
}

func TestGenerateDemand(t *testing.T) {
	rs, err := GenerateDemand(DemandConfig{Count: 50, Nodes: 4, HorizonSeconds: 600, Seed: 3}, t0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 50 {
		t.Fatalf("expected 50 requests, got %d", len(rs))
	}
	for i, r := range rs {
		if r.ID != int64(i+1) {
			t.Fatalf("ids not sequential: %d at %d", r.ID, i)
		}
		if r.Origin == r.Destination {
			t.Fatalf("request %d has identical endpoints", r.ID)
		}
		if r.CreatedAt.Before(t0) || !r.CreatedAt.Before(t0.Add(10*time.Minute)) {
			t.Fatalf("request %d outside horizon: %v", r.ID, r.CreatedAt)
		}
		if i > 0 && r.CreatedAt.Before(rs[i-1].CreatedAt) {
			t.Fatal("requests not sorted by creation")
		}
	}
}

func TestGenerateDemandProfile(t *testing.T) {
	var prof [24]float64
	prof[1] = 1
	rs, err := GenerateDemand(DemandConfig{Count: 20, Nodes: 3, HorizonSeconds: 7200, Seed: 9, Profile: prof}, t0)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rs {
		if r.CreatedAt.Hour() != 1 {
			t.Fatalf("request at hour %d", r.CreatedAt.Hour())
		}
	}

	var late [24]float64
	late[12] = 1
	if _, err := GenerateDemand(DemandConfig{Count: 1, Nodes: 3, HorizonSeconds: 60, Profile: late}, t0); err == nil {
		t.Fatal("expected error for a profile outside the horizon")
	}
}

func TestLoadDemandProfile(t *testing.T) {
	prof, err := LoadDemandProfile([]byte(`{"0":0.1,"1":0.2,"2":0.3,"x":9}`))
	if err != nil {
		t.Fatal(err)
	}
	if prof[2] != 0.3 {
		t.Fatalf("expected 0.3 got %f", prof[2])
	}
	if _, err := LoadDemandProfile([]byte(`invalid`)); err == nil {
		t.Fatal("expected error")
	}
}

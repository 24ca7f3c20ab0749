package model

import (
	"testing"
	"time"
)

func TestRouteValidate(t *testing.T) {
	tests := []struct {
		name    string
		stops   []Stop
		onboard []int64
		cap     int
		wantErr bool
	}{
		{"pickup then dropoff", []Stop{{RequestID: 1, Kind: Pickup}, {RequestID: 1, Kind: Dropoff}}, nil, 1, false},
		{"dropoff before pickup", []Stop{{RequestID: 1, Kind: Dropoff}, {RequestID: 1, Kind: Pickup}}, nil, 1, true},
		{"onboard dropoff", []Stop{{RequestID: 7, Kind: Dropoff}}, []int64{7}, 1, false},
		{"over capacity", []Stop{{RequestID: 1, Kind: Pickup}, {RequestID: 2, Kind: Pickup}}, nil, 1, true},
		{"capacity freed by dropoff", []Stop{{RequestID: 7, Kind: Dropoff}, {RequestID: 2, Kind: Pickup}}, []int64{7}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Route{Stops: tt.stops}.Validate(len(tt.onboard), tt.cap, tt.onboard)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestWindows(t *testing.T) {
	base := time.Unix(1000, 0)
	r := Request{ID: 1, CreatedAt: base, MaxWait: 5 * time.Minute, DirectTime: 10 * time.Minute}
	if got := r.LatestPickup(); !got.Equal(base.Add(5 * time.Minute)) {
		t.Fatalf("latest pickup %v", got)
	}
	if got := r.LatestDropoff(10 * time.Minute); !got.Equal(base.Add(20 * time.Minute)) {
		t.Fatalf("latest dropoff %v", got)
	}
	if r.Weight() != 1 {
		t.Fatalf("default weight %v", r.Weight())
	}
}

func TestTripKeyAndContains(t *testing.T) {
	a := Trip{Requests: []int64{1, 5, 9}}
	b := Trip{Requests: []int64{1, 5, 9}}
	if a.Key() != b.Key() {
		t.Fatal("equal sets must share a key")
	}
	if KeyOf([]int64{1, 5}) == a.Key() {
		t.Fatal("different sets must not share a key")
	}
	if !a.Contains(5) || a.Contains(4) {
		t.Fatal("contains mismatch")
	}
}

func TestRouteMaxLoad(t *testing.T) {
	r := Route{Stops: []Stop{
		{RequestID: 1, Kind: Pickup},
		{RequestID: 2, Kind: Pickup},
		{RequestID: 1, Kind: Dropoff},
		{RequestID: 2, Kind: Dropoff},
	}}
	if got := r.MaxLoad(1); got != 3 {
		t.Fatalf("expected 3 got %d", got)
	}
}

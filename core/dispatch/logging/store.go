// Package logging persists one record per dispatch cycle.
package logging

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/ridepool/core/dispatch"
)

// CycleRecord captures one dispatch cycle and its decisions.
type CycleRecord struct {
	CycleID   string        `json:"cycle_id"`
	Timestamp time.Time     `json:"timestamp"`
	Served    []int64       `json:"served"`
	Rejected  []int64       `json:"rejected"`
	Trips     []TripSummary `json:"trips"`
	Stats     Stats         `json:"stats"`
}

// TripSummary is the chosen trip of one vehicle.
type TripSummary struct {
	VehicleID   int64   `json:"vehicle_id"`
	Requests    []int64 `json:"requests"`
	Stops       int     `json:"stops"`
	CostSeconds float64 `json:"cost_seconds"`
}

// Stats mirrors dispatch.CycleStats for logging purposes.
type Stats struct {
	Vehicles        int     `json:"vehicles"`
	Requests        int     `json:"requests"`
	RVEdges         int     `json:"rv_edges"`
	RREdges         int     `json:"rr_edges"`
	Trips           int     `json:"trips"`
	Nodes           int     `json:"solver_nodes"`
	Optimal         bool    `json:"optimal"`
	Objective       float64 `json:"objective"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// NewRecord builds the record of an assignment. Idle vehicles are omitted.
func NewRecord(a dispatch.Assignment) CycleRecord {
	rec := CycleRecord{
		CycleID:   a.CycleID,
		Timestamp: a.Time,
		Served:    append([]int64{}, a.Served...),
		Rejected:  append([]int64{}, a.Rejected...),
		Stats: Stats{
			Vehicles:        a.Stats.Vehicles,
			Requests:        a.Stats.Requests,
			RVEdges:         a.Stats.RVEdges,
			RREdges:         a.Stats.RREdges,
			Trips:           a.Stats.Trips,
			Nodes:           a.Stats.Nodes,
			Optimal:         a.Stats.Optimal,
			Objective:       a.Stats.Objective,
			DurationSeconds: a.Stats.Duration.Seconds(),
		},
	}
	for vid, t := range a.Trips {
		if t.Size() == 0 && len(t.Route.Stops) == 0 {
			continue
		}
		rec.Trips = append(rec.Trips, TripSummary{
			VehicleID:   vid,
			Requests:    append([]int64{}, t.Requests...),
			Stops:       len(t.Route.Stops),
			CostSeconds: t.Route.Cost.Seconds(),
		})
	}
	sort.Slice(rec.Trips, func(i, j int) bool { return rec.Trips[i].VehicleID < rec.Trips[j].VehicleID })
	return rec
}

// LogQuery defines filters for retrieving records. Zero values match all.
type LogQuery struct {
	Start     time.Time
	End       time.Time
	VehicleID int64
	RequestID int64
}

func (q LogQuery) matches(r CycleRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.VehicleID != 0 {
		found := false
		for _, t := range r.Trips {
			if t.VehicleID == q.VehicleID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.RequestID != 0 {
		return contains(r.Served, q.RequestID) || contains(r.Rejected, q.RequestID)
	}
	return true
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// LogStore persists CycleRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec CycleRecord) error
	Query(ctx context.Context, q LogQuery) ([]CycleRecord, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, CycleRecord) error { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]CycleRecord, error) {
	return nil, nil
}
func (NopStore) Close() error { return nil }

package simulator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

// FleetConfig holds parameters for bulk fleet generation.
type FleetConfig struct {
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
	Nodes    int   `json:"nodes"`
	Seed     int64 `json:"seed"`
}

// DemandConfig holds parameters for synthetic demand.
type DemandConfig struct {
	Count          int   `json:"count"`
	Nodes          int   `json:"nodes"`
	HorizonSeconds int   `json:"horizon_seconds"`
	Seed           int64 `json:"seed"`
	// Profile weights the 24 hours of the day. A zero profile is uniform.
	Profile [24]float64 `json:"-"`
}

// GenerateFleet creates Size idle vehicles with IDs 1..Size placed on random
// nodes.
func GenerateFleet(cfg FleetConfig) []model.Vehicle {
	if cfg.Size <= 0 || cfg.Nodes <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	vs := make([]model.Vehicle, cfg.Size)
	for i := range vs {
		vs[i] = model.Vehicle{
			ID:       int64(i + 1),
			Capacity: cfg.Capacity,
			Location: model.Location(rng.Intn(cfg.Nodes)),
		}
	}
	return vs
}

// GenerateDemand draws Count requests between distinct random nodes with
// creation times spread over the horizon following the hourly profile.
func GenerateDemand(cfg DemandConfig, start time.Time) ([]model.Request, error) {
	if cfg.Count <= 0 {
		return nil, nil
	}
	if cfg.Nodes < 2 {
		return nil, fmt.Errorf("demand needs at least two nodes")
	}
	if cfg.HorizonSeconds <= 0 {
		return nil, fmt.Errorf("horizon_seconds must be positive")
	}
	uniform, peak := true, 0.0
	for _, w := range cfg.Profile {
		if w < 0 {
			return nil, fmt.Errorf("profile weights must not be negative")
		}
		if w > 0 {
			uniform = false
		}
		if w > peak {
			peak = w
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	rs := make([]model.Request, 0, cfg.Count)
	for tries := 0; len(rs) < cfg.Count; tries++ {
		if tries > cfg.Count*1000 {
			return nil, fmt.Errorf("profile gives no weight to the horizon")
		}
		at := start.Add(time.Duration(rng.Intn(cfg.HorizonSeconds)) * time.Second)
		if !uniform && rng.Float64()*peak >= cfg.Profile[at.Hour()] {
			continue
		}
		o := rng.Intn(cfg.Nodes)
		d := rng.Intn(cfg.Nodes - 1)
		if d >= o {
			d++
		}
		rs = append(rs, model.Request{
			Origin:      model.Location(o),
			Destination: model.Location(d),
			CreatedAt:   at,
		})
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].CreatedAt.Before(rs[j].CreatedAt) })
	for i := range rs {
		rs[i].ID = int64(i + 1)
	}
	return rs, nil
}

// LoadDemandProfile reads an hourly demand profile from JSON such as
// {"8": 2.5, "17": 3}. Unknown keys are ignored.
func LoadDemandProfile(data []byte) ([24]float64, error) {
	var m map[string]float64
	var prof [24]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return prof, err
	}
	for h, v := range m {
		var hour int
		if _, err := fmt.Sscanf(h, "%d", &hour); err != nil {
			continue
		}
		if hour >= 0 && hour < 24 {
			prof[hour] = v
		}
	}
	return prof, nil
}

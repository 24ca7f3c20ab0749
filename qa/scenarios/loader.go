// Package scenarios loads YAML dispatch scenarios and replays them through
// the simulator.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/ridepool/core/assign"
	"github.com/kilianp07/ridepool/core/dispatch"
	"github.com/kilianp07/ridepool/core/factory"
	"github.com/kilianp07/ridepool/core/model"
	corenetwork "github.com/kilianp07/ridepool/core/network"
	"github.com/kilianp07/ridepool/infra/network"
)

// Epoch is the simulated start time of every scenario.
var Epoch = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

type VehicleDef struct {
	ID       int64   `yaml:"id"`
	Location int64   `yaml:"location"`
	Capacity int     `yaml:"capacity"`
	Onboard  []int64 `yaml:"onboard,omitempty"`
}

func (v VehicleDef) ToModel() model.Vehicle {
	mv := model.Vehicle{
		ID:       v.ID,
		Capacity: v.Capacity,
		Location: model.Location(v.Location),
	}
	mv.Onboard = append(mv.Onboard, v.Onboard...)
	return mv
}

type RequestDef struct {
	ID                   int64   `yaml:"id"`
	Origin               int64   `yaml:"origin"`
	Destination          int64   `yaml:"destination"`
	CreatedOffsetSeconds int     `yaml:"created_offset_seconds"`
	MaxWaitSeconds       int     `yaml:"max_wait_seconds,omitempty"`
	MaxDelaySeconds      int     `yaml:"max_delay_seconds,omitempty"`
	Priority             float64 `yaml:"priority,omitempty"`
}

func (r RequestDef) ToModel(start time.Time) model.Request {
	return model.Request{
		ID:          r.ID,
		Origin:      model.Location(r.Origin),
		Destination: model.Location(r.Destination),
		CreatedAt:   start.Add(time.Duration(r.CreatedOffsetSeconds) * time.Second),
		MaxWait:     time.Duration(r.MaxWaitSeconds) * time.Second,
		MaxDelay:    time.Duration(r.MaxDelaySeconds) * time.Second,
		Priority:    r.Priority,
	}
}

// Expected lists the outcome a scenario must reach. Nil fields are not
// checked.
type Expected struct {
	Served    *int `yaml:"served"`
	Rejected  *int `yaml:"rejected"`
	Completed *int `yaml:"completed"`
	// Shared is the minimum number of completed requests that shared a ride.
	Shared *int `yaml:"shared"`
}

type Scenario struct {
	Name            string         `yaml:"name"`
	Description     string         `yaml:"description,omitempty"`
	Network         network.File   `yaml:"network"`
	Solver          string         `yaml:"solver,omitempty"`
	Dispatch        map[string]any `yaml:"dispatch,omitempty"`
	IntervalSeconds int            `yaml:"interval_seconds,omitempty"`
	Vehicles        []VehicleDef   `yaml:"vehicles"`
	Requests        []RequestDef   `yaml:"requests"`
	// FailVehicles have every route publication rejected.
	FailVehicles []int64  `yaml:"fail_vehicles,omitempty"`
	Expected     Expected `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	return &sc, nil
}

// DispatchConfig decodes the dispatch overrides.
func (sc *Scenario) DispatchConfig() (dispatch.Config, error) {
	var cfg dispatch.Config
	if len(sc.Dispatch) > 0 {
		if err := factory.Decode(sc.Dispatch, &cfg); err != nil {
			return cfg, fmt.Errorf("scenario %s: dispatch: %w", sc.Name, err)
		}
	}
	return cfg, nil
}

// NewSolver returns the configured solver, branch and bound by default.
func (sc *Scenario) NewSolver() (assign.Solver, error) {
	return assign.NewSolver(factory.ModuleConfig{Type: sc.Solver})
}

func (sc *Scenario) Oracle() (corenetwork.Oracle, error) {
	return sc.Network.Build()
}

func (sc *Scenario) Fleet() []model.Vehicle {
	vs := make([]model.Vehicle, len(sc.Vehicles))
	for i, v := range sc.Vehicles {
		vs[i] = v.ToModel()
	}
	return vs
}

func (sc *Scenario) Demand(start time.Time) []model.Request {
	rs := make([]model.Request, len(sc.Requests))
	for i, r := range sc.Requests {
		rs[i] = r.ToModel(start)
	}
	return rs
}

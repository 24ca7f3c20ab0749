package app

import (
	"fmt"
	"os"
	"time"

	"github.com/kilianp07/ridepool/config"
	"github.com/kilianp07/ridepool/core/model"
	corenetwork "github.com/kilianp07/ridepool/core/network"
	"github.com/kilianp07/ridepool/infra/network"
	"github.com/kilianp07/ridepool/qa/scenarios"
	"github.com/kilianp07/ridepool/simulator"
)

// Workload is what a simulation runs on.
type Workload struct {
	Oracle   corenetwork.Oracle
	Vehicles []model.Vehicle
	Requests []model.Request
	Start    time.Time
}

type sized interface{ Size() int }
type noded interface{ Nodes() int }

// LoadWorkload reads the scenario file, or generates fleet and demand on the
// configured network.
func LoadWorkload(c config.SimulationConfig) (Workload, error) {
	start := scenarios.Epoch
	if c.Scenario != "" {
		sc, err := scenarios.Load(c.Scenario)
		if err != nil {
			return Workload{}, fmt.Errorf("load scenario: %w", err)
		}
		o, err := sc.Oracle()
		if err != nil {
			return Workload{}, err
		}
		return Workload{Oracle: o, Vehicles: sc.Fleet(), Requests: sc.Demand(start), Start: start}, nil
	}

	o, err := network.Load(c.Network)
	if err != nil {
		return Workload{}, fmt.Errorf("load network: %w", err)
	}
	nodes := 0
	switch n := o.(type) {
	case sized:
		nodes = n.Size()
	case noded:
		nodes = n.Nodes()
	}
	fleet, demand := c.Fleet, c.Demand
	if fleet.Nodes == 0 {
		fleet.Nodes = nodes
	}
	if demand.Nodes == 0 {
		demand.Nodes = nodes
	}
	if c.DemandProfile != "" {
		data, err := os.ReadFile(c.DemandProfile)
		if err != nil {
			return Workload{}, err
		}
		if demand.Profile, err = simulator.LoadDemandProfile(data); err != nil {
			return Workload{}, fmt.Errorf("demand profile: %w", err)
		}
	}
	reqs, err := simulator.GenerateDemand(demand, start)
	if err != nil {
		return Workload{}, err
	}
	return Workload{Oracle: o, Vehicles: simulator.GenerateFleet(fleet), Requests: reqs, Start: start}, nil
}

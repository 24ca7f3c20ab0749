package config

import (
	"fmt"

	"github.com/kilianp07/ridepool/simulator"
)

// SimulationConfig selects the workload of the run command. A scenario file
// provides network, fleet and demand; otherwise they are generated on the
// network file.
type SimulationConfig struct {
	Scenario string `json:"scenario"`
	// Network is a YAML file holding a matrix or an edge list.
	Network string                 `json:"network"`
	Fleet   simulator.FleetConfig  `json:"fleet"`
	Demand  simulator.DemandConfig `json:"demand"`
	// DemandProfile is a JSON file of hourly demand weights.
	DemandProfile   string `json:"demand_profile"`
	IntervalSeconds int    `json:"interval_seconds"`
	WarmupSeconds   int    `json:"warmup_seconds"`
	CooldownSeconds int    `json:"cooldown_seconds"`
	DrainSeconds    int    `json:"drain_seconds"`
}

func (c *SimulationConfig) SetDefaults() {
	sc := c.Simulator()
	sc.SetDefaults()
	c.IntervalSeconds = sc.IntervalSeconds
	c.DrainSeconds = sc.DrainSeconds
}

func (c SimulationConfig) Validate() error {
	if err := c.Simulator().Validate(); err != nil {
		return err
	}
	if c.Scenario != "" {
		return nil
	}
	if c.Network == "" {
		return fmt.Errorf("scenario or network is required")
	}
	if c.Fleet.Size <= 0 {
		return fmt.Errorf("fleet.size must be positive")
	}
	if c.Demand.HorizonSeconds <= 0 {
		return fmt.Errorf("demand.horizon_seconds must be positive")
	}
	return nil
}

// Simulator returns the clock settings of the simulator.
func (c SimulationConfig) Simulator() simulator.Config {
	return simulator.Config{
		IntervalSeconds: c.IntervalSeconds,
		WarmupSeconds:   c.WarmupSeconds,
		CooldownSeconds: c.CooldownSeconds,
		DrainSeconds:    c.DrainSeconds,
	}
}

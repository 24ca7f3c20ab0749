package dispatch

import (
	"testing"

	"github.com/kilianp07/ridepool/core/assign"
	"github.com/kilianp07/ridepool/core/feasibility"
)

func TestConfigDefaultsValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if c.TripCost != feasibility.CostTravelTime || c.RTVTimeLimitMS != 0 {
		t.Fatalf("unexpected defaults: trip_cost=%q rtv_time_limit_ms=%d", c.TripCost, c.RTVTimeLimitMS)
	}
	if c.checkerConfig().Cost != feasibility.CostTravelTime {
		t.Fatal("trip_cost not passed to the checker")
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"objective":     func(c *Config) { c.Objective = "fastest" },
		"trip cost":     func(c *Config) { c.TripCost = "distance" },
		"rtv limit":     func(c *Config) { c.RTVTimeLimitMS = -1 },
		"reassign":      func(c *Config) { c.ReassignPolicy = "steal" },
		"negative wait": func(c *Config) { c.MaxWaitSeconds = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			var c Config
			c.SetDefaults()
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestConfigAcceptsAlternatives(t *testing.T) {
	var c Config
	c.SetDefaults()
	c.Objective = assign.ObjectiveTravelTime
	c.TripCost = feasibility.CostDelay
	c.RTVTimeLimitMS = 50
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.checkerConfig().Cost != feasibility.CostDelay {
		t.Fatal("delay cost not passed to the checker")
	}
}

package dispatch

import (
	"fmt"
	"time"

	"github.com/kilianp07/ridepool/core/assign"
	"github.com/kilianp07/ridepool/core/feasibility"
	"github.com/kilianp07/ridepool/core/rv"
)

// ReassignPolicy decides what happens to requests that were assigned in an
// earlier cycle but have not been picked up yet.
type ReassignPolicy string

const (
	// PolicyLock keeps such requests on their vehicle as committed stops.
	PolicyLock ReassignPolicy = "lock"
	// PolicyReoffer puts them back into the optimization, favouring the
	// vehicle already holding them.
	PolicyReoffer ReassignPolicy = "reoffer"
)

// DwellConfig holds the service time spent at each stop.
type DwellConfig struct {
	PickupSeconds  int `json:"pickup_seconds"`
	DropoffSeconds int `json:"dropoff_seconds"`
}

// Config defines dispatch-related settings. The value is immutable once the
// engine is built.
type Config struct {
	// Capacity is the fleet-wide vehicle capacity.
	Capacity int `json:"capacity"`
	// RVK is the number of vehicle edges retained per request.
	RVK int `json:"rv_k"`
	// RRK is the number of request edges retained per request.
	RRK     int `json:"rr_k"`
	Workers int `json:"workers"`
	// EnumerationLimit is the largest request set searched exhaustively.
	EnumerationLimit int                     `json:"enumeration_limit"`
	ReassignPolicy   ReassignPolicy          `json:"reassign_policy"`
	Objective        assign.Objective        `json:"objective"`
	DelayBound       feasibility.BoundConfig `json:"delay_bound"`
	Dwell            DwellConfig             `json:"dwell"`
	// TripCost prices trips by travel time or by passenger delay.
	TripCost feasibility.CostMode `json:"trip_cost"`
	// RTVTimeLimitMS bounds the trip growth of each vehicle. Zero disables it.
	RTVTimeLimitMS int `json:"rtv_time_limit_ms"`
	// MaxWaitSeconds and MaxDelaySeconds apply to requests without their own.
	MaxWaitSeconds  int `json:"max_wait_seconds"`
	MaxDelaySeconds int `json:"max_delay_seconds"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Capacity == 0 {
		c.Capacity = 4
	}
	if c.RVK == 0 {
		c.RVK = 30
	}
	if c.RRK == 0 {
		c.RRK = 30
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.EnumerationLimit == 0 {
		c.EnumerationLimit = feasibility.DefaultEnumerationLimit
	}
	if c.ReassignPolicy == "" {
		c.ReassignPolicy = PolicyLock
	}
	if c.Objective == "" {
		c.Objective = assign.ObjectiveServiceRate
	}
	if c.TripCost == "" {
		c.TripCost = feasibility.CostTravelTime
	}
	if c.MaxWaitSeconds == 0 {
		c.MaxWaitSeconds = 300
	}
	if c.MaxDelaySeconds == 0 {
		c.MaxDelaySeconds = 600
	}
	c.DelayBound.SetDefaults()
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive")
	}
	if c.RVK <= 0 || c.RRK <= 0 {
		return fmt.Errorf("rv_k and rr_k must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.EnumerationLimit <= 0 {
		return fmt.Errorf("enumeration_limit must be positive")
	}
	switch c.ReassignPolicy {
	case PolicyLock, PolicyReoffer:
	default:
		return fmt.Errorf("unknown reassign_policy %q", c.ReassignPolicy)
	}
	if !c.Objective.Valid() {
		return fmt.Errorf("unknown objective %q", c.Objective)
	}
	if !c.TripCost.Valid() {
		return fmt.Errorf("unknown trip_cost %q", c.TripCost)
	}
	if c.RTVTimeLimitMS < 0 {
		return fmt.Errorf("rtv_time_limit_ms must not be negative")
	}
	if c.Dwell.PickupSeconds < 0 || c.Dwell.DropoffSeconds < 0 {
		return fmt.Errorf("dwell times must not be negative")
	}
	if c.MaxWaitSeconds < 0 || c.MaxDelaySeconds < 0 {
		return fmt.Errorf("default wait and delay must not be negative")
	}
	return c.DelayBound.Validate()
}

func (c Config) checkerConfig() feasibility.Config {
	return feasibility.Config{
		DwellPickup:      time.Duration(c.Dwell.PickupSeconds) * time.Second,
		DwellDropoff:     time.Duration(c.Dwell.DropoffSeconds) * time.Second,
		EnumerationLimit: c.EnumerationLimit,
		Cost:             c.TripCost,
	}
}

func (c Config) rvConfig() rv.Config {
	return rv.Config{RVK: c.RVK, RRK: c.RRK, Capacity: c.Capacity, Workers: c.Workers}
}

package simulator

import (
	"fmt"
	"time"
)

// Config holds parameters for the simulator.
type Config struct {
	// IntervalSeconds is the time between two dispatch cycles.
	IntervalSeconds int `json:"interval_seconds"`
	// WarmupSeconds and CooldownSeconds exclude requests created at the
	// start or end of the demand horizon from the statistics.
	WarmupSeconds   int `json:"warmup_seconds"`
	CooldownSeconds int `json:"cooldown_seconds"`
	// DrainSeconds bounds how long the run continues after the last request
	// is released.
	DrainSeconds int `json:"drain_seconds"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 60
	}
	if c.DrainSeconds == 0 {
		c.DrainSeconds = 3600
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive")
	}
	if c.WarmupSeconds < 0 || c.CooldownSeconds < 0 || c.DrainSeconds < 0 {
		return fmt.Errorf("warmup, cooldown and drain must not be negative")
	}
	return nil
}

func (c Config) interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

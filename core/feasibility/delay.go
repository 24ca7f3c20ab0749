package feasibility

import (
	"fmt"
	"time"

	"github.com/kilianp07/ridepool/core/model"
)

// DelayBound returns the extra travel time a request tolerates over its
// direct trip.
type DelayBound func(r model.Request) time.Duration

// Additive uses each request's MaxDelay as is.
func Additive() DelayBound {
	return func(r model.Request) time.Duration { return r.MaxDelay }
}

// Multiplicative allows factor times the direct travel time.
func Multiplicative(factor float64) DelayBound {
	return func(r model.Request) time.Duration {
		return time.Duration(factor * float64(r.DirectTime))
	}
}

// BoundConfig selects a DelayBound from configuration.
type BoundConfig struct {
	// Mode is "additive" or "multiplicative".
	Mode   string  `json:"mode"`
	Factor float64 `json:"factor"`
}

// SetDefaults applies the additive mode when unset.
func (c *BoundConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "additive"
	}
}

// Validate checks the mode and factor.
func (c BoundConfig) Validate() error {
	switch c.Mode {
	case "additive":
		return nil
	case "multiplicative":
		if c.Factor <= 0 {
			return fmt.Errorf("delay bound factor must be positive")
		}
		return nil
	default:
		return fmt.Errorf("unknown delay bound mode %q", c.Mode)
	}
}

// Bound returns the configured DelayBound.
func (c BoundConfig) Bound() DelayBound {
	if c.Mode == "multiplicative" {
		return Multiplicative(c.Factor)
	}
	return Additive()
}

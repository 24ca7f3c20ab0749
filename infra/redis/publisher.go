// Package redis publishes vehicle routes over Redis Pub/Sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	coremon "github.com/kilianp07/ridepool/core/monitoring"
	coremqtt "github.com/kilianp07/ridepool/core/mqtt"
)

// Config selects the Redis server receiving routes.
type Config struct {
	// URL such as redis://localhost:6379/0. Empty disables the publisher.
	URL           string `json:"url"`
	ChannelPrefix string `json:"channel_prefix"`
	TimeoutMS     int    `json:"timeout_ms"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ChannelPrefix == "" {
		c.ChannelPrefix = "vehicles:"
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 2000
	}
}

// Enabled reports whether a server is configured.
func (c Config) Enabled() bool { return c.URL != "" }

// client is the part of the go-redis client used here.
type client interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
	Close() error
}

// RoutePublisher sends each route as JSON to <prefix><vehicle id>:route.
type RoutePublisher struct {
	rdb     client
	prefix  string
	timeout time.Duration
}

// NewRoutePublisher parses cfg.URL and builds the client. No connection is
// made until the first publish.
func NewRoutePublisher(cfg Config) (*RoutePublisher, error) {
	cfg.SetDefaults()
	opt, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return newRoutePublisher(goredis.NewClient(opt), cfg), nil
}

func newRoutePublisher(c client, cfg Config) *RoutePublisher {
	return &RoutePublisher{rdb: c, prefix: cfg.ChannelPrefix, timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
}

// Channel returns the channel carrying routes for a vehicle.
func (p *RoutePublisher) Channel(vehicleID int64) string {
	return p.prefix + strconv.FormatInt(vehicleID, 10) + ":route"
}

// PublishRoute implements coremqtt.RoutePublisher.
func (p *RoutePublisher) PublishRoute(msg coremqtt.RouteMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.rdb.Publish(ctx, p.Channel(msg.VehicleID), data).Err(); err != nil {
		err = fmt.Errorf("%w: vehicle %d: %v", coremqtt.ErrPublish, msg.VehicleID, err)
		coremon.CaptureException(err, coremon.Tags{
			"module":     "redis",
			"vehicle_id": strconv.FormatInt(msg.VehicleID, 10),
			"cycle_id":   msg.CycleID,
		})
		return err
	}
	return nil
}

// Close closes the client.
func (p *RoutePublisher) Close() error { return p.rdb.Close() }

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ridepool/core/assign"
	"github.com/kilianp07/ridepool/core/dispatch"
	"github.com/kilianp07/ridepool/core/factory"
	"github.com/kilianp07/ridepool/core/metrics"
	"github.com/kilianp07/ridepool/infra/live"
	"github.com/kilianp07/ridepool/infra/monitoring"
	"github.com/kilianp07/ridepool/infra/mqtt"
	"github.com/kilianp07/ridepool/infra/redis"
)

type Config struct {
	Dispatch   dispatch.Config      `json:"dispatch"`
	Solver     factory.ModuleConfig `json:"solver"`
	Simulation SimulationConfig     `json:"simulation"`
	Metrics    metrics.Config       `json:"metrics"`
	Logging    LoggingConfig        `json:"logging"`
	MQTT       mqtt.Config          `json:"mqtt"`
	Redis      redis.Config         `json:"redis"`
	Live       live.Config          `json:"live"`
	Sentry     monitoring.Config    `json:"sentry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	c.Dispatch.SetDefaults()
	if c.Solver.Type == "" {
		c.Solver.Type = "branch_and_bound"
	}
	c.Simulation.SetDefaults()
	c.Logging.SetDefaults()
	c.MQTT.SetDefaults()
	c.Redis.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if _, err := assign.NewSolver(c.Solver); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/ridepool/app/plugins"
	"github.com/kilianp07/ridepool/config"
	"github.com/kilianp07/ridepool/core/assign"
	"github.com/kilianp07/ridepool/core/dispatch"
	dispatchlog "github.com/kilianp07/ridepool/core/dispatch/logging"
	coremetrics "github.com/kilianp07/ridepool/core/metrics"
	coremon "github.com/kilianp07/ridepool/core/monitoring"
	coremqtt "github.com/kilianp07/ridepool/core/mqtt"
	"github.com/kilianp07/ridepool/infra/live"
	"github.com/kilianp07/ridepool/infra/logger"
	"github.com/kilianp07/ridepool/infra/metrics"
	"github.com/kilianp07/ridepool/infra/monitoring"
	"github.com/kilianp07/ridepool/infra/mqtt"
	"github.com/kilianp07/ridepool/infra/redis"
	"github.com/kilianp07/ridepool/internal/eventbus"
	"github.com/kilianp07/ridepool/simulator"
)

// Service wires the dispatch engine, the simulator and the outer adapters.
type Service struct {
	Engine    *dispatch.Engine
	Simulator *simulator.Simulator
	store     dispatchlog.LogStore
	sink      coremetrics.MetricsSink
	pub       mqtt.Publisher
	closers   []func() error
	hub       *live.Hub
	bus       *eventbus.TypedBus[eventbus.Event]
	log       logger.Logger
	promAddr  string
	liveAddr  string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := plugins.NewLogStore(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("log store: %w", err)
	}

	svc := &Service{store: store, sink: sink, bus: eventbus.New(), log: logg,
		promAddr: cfg.Metrics.PrometheusAddr, liveAddr: cfg.Live.Addr}
	if err := svc.publishers(cfg); err != nil {
		_ = svc.Close()
		return nil, err
	}
	if svc.liveAddr != "" {
		svc.hub = live.NewHub(logger.New("live"))
	}
	if err := svc.build(cfg); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

// publishers selects the route publishers. Without a broker or Redis the
// routes are kept in memory.
func (s *Service) publishers(cfg *config.Config) error {
	var pubs coremqtt.MultiPublisher
	if cfg.MQTT.Enabled() {
		p, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt publisher: %w", err)
		}
		s.closers = append(s.closers, func() error { p.Disconnect(); return nil })
		pubs = append(pubs, p)
	}
	if cfg.Redis.Enabled() {
		p, err := redis.NewRoutePublisher(cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis publisher: %w", err)
		}
		s.closers = append(s.closers, p.Close)
		pubs = append(pubs, p)
	}
	switch len(pubs) {
	case 0:
		s.pub = mqtt.NewMockPublisher()
	case 1:
		s.pub = pubs[0]
	default:
		s.pub = pubs
	}
	s.pub = mqtt.Throttle(s.pub, cfg.MQTT.MaxRoutesPerSecond, cfg.MQTT.RouteBurst)
	return nil
}

func (s *Service) build(cfg *config.Config) error {
	solver, err := assign.NewSolver(cfg.Solver)
	if err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	s.Engine, err = dispatch.NewEngine(cfg.Dispatch, solver, s.bus, logger.New("dispatch"))
	if err != nil {
		return fmt.Errorf("dispatch engine: %w", err)
	}
	w, err := LoadWorkload(cfg.Simulation)
	if err != nil {
		return err
	}
	s.Simulator, err = simulator.New(cfg.Simulation.Simulator(), s.Engine, w.Oracle, w.Vehicles, w.Requests, w.Start,
		simulator.WithLogStore(s.store),
		simulator.WithMetricsSink(s.sink),
		simulator.WithLogger(logger.New("simulator")),
	)
	return err
}

// Run drives the simulation to completion or until ctx is cancelled. Events
// buffered on the bus are drained before it returns and the HTTP servers
// stop with it.
func (s *Service) Run(ctx context.Context) (simulator.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink)
	forwarded := mqtt.StartRouteForwarder(ctx, s.bus, s.pub, logger.New("routes"))
	streamed := closedChan()
	if s.hub != nil {
		streamed = s.hub.Start(ctx, s.bus)
		go func() {
			defer coremon.Recover()
			if err := live.Serve(ctx, s.liveAddr, s.hub); err != nil {
				s.log.Errorf("live server: %v", err)
			}
		}()
	}
	if s.promAddr != "" {
		go func() {
			defer coremon.Recover()
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	rep, err := s.Simulator.Run(ctx)
	s.bus.Close()
	<-collected
	<-forwarded
	<-streamed
	if err != nil {
		return rep, err
	}
	s.log.Infow("run finished", map[string]any{
		"cycles":       rep.Cycles,
		"service_rate": rep.Stats.ServiceRate,
	})
	return rep, nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.hub != nil {
		s.hub.Close()
	}
	for _, c := range s.closers {
		if err := c(); err != nil {
			s.log.Warnf("close publisher: %v", err)
		}
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

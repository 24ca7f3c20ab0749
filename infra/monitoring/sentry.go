package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	coremon "github.com/kilianp07/ridepool/core/monitoring"
)

// Config selects where dispatcher errors are reported.
type Config struct {
	DSN         string `json:"dsn"`
	Environment string `json:"environment"`
	Release     string `json:"release"`
	// ServerName tells dispatcher instances apart. Defaults to the hostname.
	ServerName string `json:"server_name"`
	// SampleRate is the share of errors sent, in (0, 1]. Zero sends all.
	SampleRate     float64 `json:"sample_rate"`
	FlushTimeoutMS int     `json:"flush_timeout_ms"`
}

func (c *Config) setDefaults() {
	if c.FlushTimeoutMS <= 0 {
		c.FlushTimeoutMS = 2000
	}
}

// Monitor reports dispatcher errors to Sentry on its own hub.
type Monitor struct {
	hub   *sentry.Hub
	flush time.Duration
}

// NewSentryMonitor returns a Sentry-backed monitor. An empty DSN yields a
// no-op monitor.
func NewSentryMonitor(cfg Config) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	return newMonitor(cfg, nil)
}

func newMonitor(cfg Config, transport sentry.Transport) (*Monitor, error) {
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return nil, fmt.Errorf("sample_rate %v out of range", cfg.SampleRate)
	}
	cfg.setDefaults()
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       cfg.ServerName,
		SampleRate:       cfg.SampleRate,
		AttachStacktrace: true,
		Transport:        transport,
	})
	if err != nil {
		return nil, err
	}
	scope := sentry.NewScope()
	scope.SetTag("service", "ridepool")
	return &Monitor{
		hub:   sentry.NewHub(client, scope),
		flush: time.Duration(cfg.FlushTimeoutMS) * time.Millisecond,
	}, nil
}

// CaptureException sends err with tags. Errors of one module and phase
// share an issue whatever their cycle.
func (m *Monitor) CaptureException(err error, tags coremon.Tags) {
	if err == nil {
		return
	}
	m.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if fp := fingerprint(tags); fp != nil {
			scope.SetFingerprint(fp)
		}
		if tags["module"] == "dispatch" {
			scope.SetLevel(sentry.LevelError)
		} else {
			scope.SetLevel(sentry.LevelWarning)
		}
		m.hub.CaptureException(err)
	})
}

func fingerprint(tags coremon.Tags) []string {
	module := tags["module"]
	if module == "" {
		return nil
	}
	if phase := tags["phase"]; phase != "" {
		return []string{module, phase}
	}
	return []string{module}
}

// Recover reports a recovered panic value.
func (m *Monitor) Recover(v any) {
	m.hub.Recover(v)
	m.hub.Flush(m.flush)
}

func (m *Monitor) Flush(timeout time.Duration) { m.hub.Flush(timeout) }

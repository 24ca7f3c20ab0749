// Package plugins maps configured backend names to cycle record stores.
package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/ridepool/config"
	dispatchlog "github.com/kilianp07/ridepool/core/dispatch/logging"
)

// LogStoreFactory builds a cycle record store from the logging section.
type LogStoreFactory func(cfg config.LoggingConfig) (dispatchlog.LogStore, error)

var LogStores = map[string]LogStoreFactory{}

func RegisterLogStore(name string, f LogStoreFactory) { LogStores[name] = f }

// NewLogStore builds the store selected by cfg.Backend.
func NewLogStore(cfg config.LoggingConfig) (dispatchlog.LogStore, error) {
	f, ok := LogStores[cfg.Backend]
	if !ok {
		names := make([]string, 0, len(LogStores))
		for n := range LogStores {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown log store %q (known: %v)", cfg.Backend, names)
	}
	return f(cfg)
}

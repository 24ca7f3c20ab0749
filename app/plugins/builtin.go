package plugins

import (
	"github.com/kilianp07/ridepool/config"
	dispatchlog "github.com/kilianp07/ridepool/core/dispatch/logging"
)

func init() {
	RegisterLogStore("none", func(config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NopStore{}, nil
	})
	RegisterLogStore("jsonl", func(lc config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewJSONLStore(lc.Path)
	})
	RegisterLogStore("rotating", func(lc config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewRotatingJSONLStore(lc.Path, lc.MaxSizeMB, lc.MaxBackups, lc.MaxAgeDays)
	})
	RegisterLogStore("sqlite", func(lc config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewSQLiteStore(lc.Path)
	})
	RegisterLogStore("postgres", func(lc config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewPostgresStore(lc.DSN)
	})
}

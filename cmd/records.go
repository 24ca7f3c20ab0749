package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridepool/app/plugins"
	"github.com/kilianp07/ridepool/config"
	"github.com/kilianp07/ridepool/core/dispatch/logging"
)

var recordsFlags struct {
	request int64
	vehicle int64
	since   string
	until   string
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Query the cycle records of the configured log store",
	Args:  cobra.NoArgs,
	RunE:  records,
}

func init() {
	f := recordsCmd.Flags()
	f.Int64Var(&recordsFlags.request, "request", 0, "only cycles that decided this request")
	f.Int64Var(&recordsFlags.vehicle, "vehicle", 0, "only cycles that routed this vehicle")
	f.StringVar(&recordsFlags.since, "since", "", "RFC 3339 lower bound")
	f.StringVar(&recordsFlags.until, "until", "", "RFC 3339 upper bound")
	rootCmd.AddCommand(recordsCmd)
}

func records(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	q := logging.LogQuery{RequestID: recordsFlags.request, VehicleID: recordsFlags.vehicle}
	if q.Start, err = parseBound(recordsFlags.since); err != nil {
		return fmt.Errorf("--since: %w", err)
	}
	if q.End, err = parseBound(recordsFlags.until); err != nil {
		return fmt.Errorf("--until: %w", err)
	}
	store, err := plugins.NewLogStore(cfg.Logging)
	if err != nil {
		return err
	}
	defer store.Close()
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []logging.CycleRecord{}
	}
	return printJSON(cmd, recs)
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

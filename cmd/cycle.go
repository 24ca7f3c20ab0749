package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridepool/core/dispatch"
	"github.com/kilianp07/ridepool/core/dispatch/logging"
	"github.com/kilianp07/ridepool/core/model"
	"github.com/kilianp07/ridepool/infra/logger"
	"github.com/kilianp07/ridepool/qa/scenarios"
)

var cycleAt int

var cycleCmd = &cobra.Command{
	Use:   "cycle <scenario>",
	Short: "Run one dispatch cycle on a scenario and print the assignment",
	Args:  cobra.ExactArgs(1),
	RunE:  cycle,
}

func init() {
	cycleCmd.Flags().IntVar(&cycleAt, "at", 0, "cycle time as seconds after the scenario start")
	rootCmd.AddCommand(cycleCmd)
}

func cycle(cmd *cobra.Command, args []string) error {
	sc, err := scenarios.Load(args[0])
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	oracle, err := sc.Oracle()
	if err != nil {
		return err
	}
	cfg, err := sc.DispatchConfig()
	if err != nil {
		return err
	}
	solver, err := sc.NewSolver()
	if err != nil {
		return err
	}
	engine, err := dispatch.NewEngine(cfg, solver, nil, logger.New("cycle"))
	if err != nil {
		return err
	}

	now := scenarios.Epoch.Add(time.Duration(cycleAt) * time.Second)
	var reqs []model.Request
	for _, r := range sc.Demand(scenarios.Epoch) {
		if !r.CreatedAt.After(now) {
			reqs = append(reqs, r)
		}
	}
	a, err := engine.RunCycle(context.Background(), sc.Fleet(), reqs, now, oracle)
	if err != nil {
		return err
	}
	return printJSON(cmd, logging.NewRecord(a))
}

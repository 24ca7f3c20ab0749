package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridepool/infra/logger"
	"github.com/kilianp07/ridepool/qa/scenarios"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario>",
	Short: "Replay a scenario file and print its statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  simulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := scenarios.Load(args[0])
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	res, err := scenarios.Run(ctx, sc, logger.New("simulate"))
	if err != nil {
		return err
	}
	return printJSON(cmd, res.Report.Stats)
}

package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apparelmetrics/market_cap_app/internal/jobs"
	"github.com/apparelmetrics/market_cap_app/internal/reports"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background job worker",
	Long: `Run the background job worker.

Consumes fetch and comparison jobs from the NATS queue, executes them and
publishes progress to the per-job tracking subjects the API streams from.
Stops on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, container, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		queue, err := jobs.Connect(ctx, cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to job queue: %w", err)
		}
		defer queue.Close()

		reporter := reports.NewWriter(cfg.OutputDir)
		worker := jobs.NewWorker(queue, container.MarketCap, container.Comparison, reporter, logger)
		return worker.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/reports"
	"github.com/apparelmetrics/market_cap_app/internal/utils"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare stored market caps between two dates",
	Long: `Compare stored market caps between two dates.

Both sides are normalized through the exchange rates of the --to date, so
the change columns show market movement with currency drift removed.
Writes a CSV with --csv and a markdown summary with --md.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		writeCSV, _ := cmd.Flags().GetBool("csv")
		writeMD, _ := cmd.Flags().GetBool("md")

		from, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return fmt.Errorf("invalid --from %q, expected YYYY-MM-DD", fromStr)
		}
		to, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return fmt.Errorf("invalid --to %q, expected YYYY-MM-DD", toStr)
		}
		if to.Before(from) {
			return fmt.Errorf("--to must not be before --from")
		}

		ctx := cmd.Context()
		pool, container, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		comparison, err := container.Comparison.Compare(ctx, from, to)
		if err != nil {
			return err
		}

		printComparison(comparison)

		reporter := reports.NewWriter(cfg.OutputDir)
		if writeCSV {
			path, err := reporter.WriteComparisonCSV(comparison)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
		}
		if writeMD {
			path, err := reporter.WriteComparisonSummary(comparison)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
		}
		return nil
	},
}

func printComparison(comparison *domain.Comparison) {
	fmt.Printf("Market cap comparison %s -> %s (%d companies)\n",
		comparison.FromDate.Format(dateLayout),
		comparison.ToDate.Format(dateLayout),
		len(comparison.Rows))
	fmt.Printf("Total: $%sB -> $%sB (%s%%)\n",
		utils.FormatBillions(comparison.TotalFromUSD),
		utils.FormatBillions(comparison.TotalToUSD),
		utils.FormatPercent(comparison.TotalChangePct))

	if len(comparison.TopGainers) > 0 {
		fmt.Println("Top gainers:")
		for _, mover := range comparison.TopGainers {
			printMover(mover)
		}
	}
	if len(comparison.TopLosers) > 0 {
		fmt.Println("Top losers:")
		for _, mover := range comparison.TopLosers {
			printMover(mover)
		}
	}

	if !comparison.FxNoiseEliminated {
		fmt.Println("Note: no rate snapshot covered the comparison, stored per-date conversions were used as-is.")
	}
	for _, warning := range comparison.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
}

func printMover(mover domain.Mover) {
	fmt.Printf("  %-8s %s%% ($%sM)\n",
		mover.Ticker,
		utils.FormatPercent(mover.ChangePct),
		utils.FormatMillions(mover.ChangeUSD))
}

func init() {
	compareCmd.Flags().String("from", "", "baseline date (YYYY-MM-DD)")
	compareCmd.Flags().String("to", "", "comparison date (YYYY-MM-DD)")
	compareCmd.Flags().Bool("csv", false, "write the full comparison as CSV")
	compareCmd.Flags().Bool("md", false, "write a markdown summary")
	_ = compareCmd.MarkFlagRequired("from")
	_ = compareCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(compareCmd)
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/apparelmetrics/market_cap_app/internal/reports"
)

var exportRatesCmd = &cobra.Command{
	Use:   "export-rates",
	Short: "Export the latest exchange rate snapshot to CSV",
	Long: `Export the latest exchange rate snapshot to CSV.

The snapshot includes every directed pair derivable from the stored quotes,
with a source column marking direct, inverted and cross-derived rates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = cfg.OutputDir
		}

		ctx := cmd.Context()
		pool, container, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		snap, err := container.Rate.SnapshotAt(ctx, nil)
		if err != nil {
			return err
		}
		rates := snap.Entries()
		if len(rates) == 0 {
			return fmt.Errorf("no exchange rates stored, run fetch-forex first")
		}

		path, err := reports.NewWriter(outDir).WriteRatesCSV(rates, time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %d rates to %s\n", len(rates), path)
		return nil
	},
}

func init() {
	exportRatesCmd.Flags().String("out", "", "output directory (overrides OUTPUT_DIR)")
	rootCmd.AddCommand(exportRatesCmd)
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
)

const dateLayout = "2006-01-02"

var fetchMarketCapsCmd = &cobra.Command{
	Use:   "fetch-market-caps",
	Short: "Fetch and store market caps for the configured tickers",
	Long: `Fetch and store market caps for the configured tickers.

Without --date this pulls current quotes and company profiles. With --date
it pulls the historical market cap closest to that day instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dateStr, _ := cmd.Flags().GetString("date")

		ctx := cmd.Context()
		pool, container, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		progress := func(current, total int, ticker string) {
			fmt.Printf("  [%d/%d] %s\n", current, total, ticker)
		}

		var entries []domain.MarketCapEntry
		if dateStr != "" {
			date, perr := time.Parse(dateLayout, dateStr)
			if perr != nil {
				return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", dateStr)
			}
			fmt.Printf("Fetching market caps for %s\n", dateStr)
			entries, err = container.MarketCap.FetchAndStoreHistoricalMarketCaps(ctx, date, progress)
		} else {
			fmt.Println("Fetching current market caps")
			entries, err = container.MarketCap.FetchAndStoreMarketCaps(ctx, progress)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Stored %d market cap entries\n", len(entries))
		return nil
	},
}

var fetchForexCmd = &cobra.Command{
	Use:   "fetch-forex",
	Short: "Fetch and store current forex quotes for all pairs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, container, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		count, err := container.Rate.FetchAndStoreForexQuotes(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Stored %d forex quotes\n", count)
		return nil
	},
}

var fetchHistoricalRatesCmd = &cobra.Command{
	Use:   "fetch-historical-rates",
	Short: "Backfill daily closing exchange rates over a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		pairs, _ := cmd.Flags().GetStringSlice("pair")

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

		for _, pair := range pairs {
			count, err := container.Rate.FetchAndStoreHistoricalRates(ctx, pair, from, to)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", pair, err)
			}
			fmt.Printf("%s: stored %d daily rates\n", pair, count)
		}
		return nil
	},
}

func init() {
	fetchMarketCapsCmd.Flags().String("date", "", "historical date (YYYY-MM-DD); defaults to current data")

	fetchHistoricalRatesCmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	fetchHistoricalRatesCmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	fetchHistoricalRatesCmd.Flags().StringSlice("pair", []string{"EUR/USD"}, "currency pairs to backfill, FROM/TO form")
	_ = fetchHistoricalRatesCmd.MarkFlagRequired("from")
	_ = fetchHistoricalRatesCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(fetchMarketCapsCmd)
	rootCmd.AddCommand(fetchForexCmd)
	rootCmd.AddCommand(fetchHistoricalRatesCmd)
}

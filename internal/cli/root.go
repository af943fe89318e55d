// Package cli wires the cobra command tree for the mcap_backend binary.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/apparelmetrics/market_cap_app/pkg/config"
)

// Shared by every subcommand, populated in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mcap_backend",
	Short: "Market cap reporting backend",
	Long: `Market cap reporting backend.

Fetches company market caps and forex rates from Financial Modeling Prep,
stores them in PostgreSQL, and serves normalized reports over HTTP or
writes them to CSV and markdown files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(logger)

		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

// Execute runs the command tree. Intended to be called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

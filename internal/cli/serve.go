package cli

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/apparelmetrics/market_cap_app/internal/handlers"
	"github.com/apparelmetrics/market_cap_app/internal/jobs"
	"github.com/apparelmetrics/market_cap_app/internal/middleware"
	"github.com/apparelmetrics/market_cap_app/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, container, err := openServices(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		// The server stays up without NATS; only the async job endpoints
		// are withheld.
		queue, err := jobs.Connect(ctx, cfg.NATSURL, logger)
		if err != nil {
			logger.Warn("Job queue unavailable, job endpoints disabled", slog.String("error", err.Error()))
			queue = nil
		} else {
			defer queue.Close()
		}

		posthogClient := utils.InitializePosthogClient(cfg.PostHogAPIKey, logger)
		defer posthogClient.Close()

		if cfg.IsProduction {
			gin.SetMode(gin.ReleaseMode)
		}

		r := gin.New()
		r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
		if err := r.SetTrustedProxies(nil); err != nil {
			return fmt.Errorf("failed to set trusted proxies: %w", err)
		}

		handlers.RegisterRoutes(r, cfg, container, queue, posthogClient)

		port := cfg.Port
		if override, _ := cmd.Flags().GetString("port"); override != "" {
			port = override
		}

		logger.Info("Server starting", slog.String("port", port))
		return r.Run(":" + port)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sensiq/coldmail"
	"github.com/sensiq/coldmail/middlewares"
	"github.com/sensiq/coldmail/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API and the background scheduler.

The server listens on ADDR (default :3000) and shuts down gracefully on
SIGINT or SIGTERM: running bulk jobs are canceled and drained first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log, flush := logger.New(cfg.Logger, middlewares.RequestIDExtractor())
		defer flush()

		svc, err := coldmail.New(cmd.Context(), cfg, log)
		if err != nil {
			log.Error("startup failed", slog.Any("error", err))
			return err
		}
		return svc.Run(cmd.Context())
	},
}

/*
Package cmd provides the coldmail command line.
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sensiq/coldmail"
	"github.com/sensiq/coldmail/pkg/logger"
)

var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coldmail",
	Short: "Generate and send SensIQ sales emails",
	Long: `coldmail generates cold and follow-up sales emails with a hosted
language model, grounds them in the SensIQ knowledge base and sends them
one at a time or in bulk from spreadsheet uploads.

Example:
  coldmail serve                        # Run the HTTP API
  coldmail index --force-update         # Rebuild the knowledge index
  coldmail preview --type followup --stage second
  coldmail send --to someone@example.com`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(indexProductCmd)
	rootCmd.AddCommand(testDBCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(sendCmd)
}

func loadConfig() (coldmail.Config, error) {
	cfg, err := coldmail.Load()
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	return cfg, nil
}

func loadIndexConfig() (coldmail.IndexConfig, error) {
	cfg, err := coldmail.LoadIndex()
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	return cfg, nil
}

func console(level string) *slog.Logger {
	return logger.NewConsole(level)
}

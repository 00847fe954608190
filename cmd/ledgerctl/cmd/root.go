// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/log"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the personal finance ledger from the terminal",
	Long: `ledgerctl works directly on the ledger database configured for the
ledger server (DATA_BACKEND, SQLITE_DB_PATH, ...).

It supports:
- Bulk importing transactions from a JSON file
- Printing the monthly budget summary
- Printing category breakdowns for a month
- Rendering the summary as PDF or PNG
- Applying schema migrations

Example:
  ledgerctl import transactions.json
  ledgerctl summary
  ledgerctl breakdown --month 2024-01 --view expense
  ledgerctl report --format pdf --out summary.pdf
  ledgerctl migrate`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
		log.SetDefault(log.New(log.Config{
			Level:     logLevel(),
			Format:    "text",
			Component: log.ComponentCLI,
			Output:    os.Stderr,
		}))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default is $LEDGER_CONFIG, then environment only)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(breakdownCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(migrateCmd)
}

// openLedger loads the configuration and opens the configured backend.
// Events are published exactly as the server would.
func openLedger(ctx context.Context) (*backend.BackendResult, error) {
	cfg, err := cli.LoadAndValidateConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     logLevel(),
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})
	return cli.InitBackend(ctx, logger, cfg)
}

// logLevel keeps stdout clean for command output; --debug shows everything.
func logLevel() slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

func closeLedger(be *backend.BackendResult) {
	if err := be.Cleanup(); err != nil {
		slog.Error("failed to close ledger", "error", err)
	}
}

// exitOnError prints err and exits with status 1.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Debug(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

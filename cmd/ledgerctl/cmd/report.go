package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ledger/internal/reports"
	"ledger/internal/summary"
)

var (
	reportFormat string
	reportOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the monthly summary as a PDF table or PNG chart",
	Long: `Render the monthly summary to a file.

Formats:
  pdf   landscape table with one line per month and the Total line
  png   bar chart of income and expenses per month

Example:
  ledgerctl report --format pdf --out summary.pdf
  ledgerctl report --format png --out summary.png`,
	Args: cobra.NoArgs,
	Run:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "pdf", "pdf or png")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (default ledger-summary.<format>)")
}

func runReport(cmd *cobra.Command, args []string) {
	render, err := reportRenderer(reportFormat)
	exitOnError(err, "invalid --format")

	out := reportOut
	if out == "" {
		out = "ledger-summary." + reportFormat
	}

	ctx := context.Background()
	be, err := openLedger(ctx)
	exitOnError(err, "failed to open ledger")
	defer closeLedger(be)

	rows, err := be.Service.MonthlySummary(ctx)
	exitOnError(err, "failed to compute summary")

	body, err := render(rows)
	if errors.Is(err, reports.ErrNoData) {
		fmt.Fprintln(cmd.OutOrStdout(), "No transactions recorded, nothing to chart")
		return
	}
	exitOnError(err, "failed to render report")

	exitOnError(os.WriteFile(out, body, 0o644), "failed to write report")
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, len(body))
}

func reportRenderer(format string) (func([]summary.Row) ([]byte, error), error) {
	switch format {
	case "pdf":
		return reports.SummaryPDF, nil
	case "png":
		return reports.SummaryChart, nil
	default:
		return nil, fmt.Errorf("unknown format %q, expected pdf or png", format)
	}
}

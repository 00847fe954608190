package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledger/internal/summary"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the monthly budget summary",
	Long: `Print one line per month, most recent first, followed by the Total
line. Budgets follow the 60/30/10 rule; percentages are of the month's
income.

Example:
  ledgerctl summary
  ledgerctl summary --json`,
	Args: cobra.NoArgs,
	Run:  runSummary,
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print JSON instead of a table")
}

func runSummary(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	be, err := openLedger(ctx)
	exitOnError(err, "failed to open ledger")
	defer closeLedger(be)

	rows, err := be.Service.MonthlySummary(ctx)
	exitOnError(err, "failed to compute summary")

	if summaryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		exitOnError(enc.Encode(rows), "failed to encode summary")
		return
	}
	exitOnError(printSummary(cmd.OutOrStdout(), rows), "failed to print summary")
}

func printSummary(w io.Writer, rows []summary.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Month\tIncome\tExpenses\tBasic\tBudget\t%\tWant\tBudget\t%\tSavings\tBudget\t%\tBalance\t\t")
	for _, r := range rows {
		month := r.Month
		if r.IsTotal() {
			month = r.Year
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			month,
			r.Income.StringFixed(2), r.Expenses.StringFixed(2),
			r.Basic.StringFixed(2), r.BasicBudget.StringFixed(2), r.BasicPct.StringFixed(2),
			r.Want.StringFixed(2), r.WantBudget.StringFixed(2), r.WantPct.StringFixed(2),
			r.Savings.StringFixed(2), r.SavingsBudget.StringFixed(2), r.SavingsPct.StringFixed(2),
			r.Balance.StringFixed(2), r.BalanceSymbol)
	}
	return tw.Flush()
}

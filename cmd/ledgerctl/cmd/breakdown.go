package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/summary"
)

var (
	breakdownMonth string
	breakdownView  string
	breakdownKind  string
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Print per-category totals for one month",
	Long: `Print subcategory totals grouped by category for a month.

Select the rows with either --view or --kind:
  --view income    income rows and savings deposits
  --view expense   basic and want expenses
  --kind Income    every row of that kind

Example:
  ledgerctl breakdown --month 2024-05 --view expense
  ledgerctl breakdown --month 2024-05 --kind Income`,
	Args: cobra.NoArgs,
	Run:  runBreakdown,
}

func init() {
	breakdownCmd.Flags().StringVar(&breakdownMonth, "month", "", "month to break down, YYYY-MM (required)")
	breakdownCmd.Flags().StringVar(&breakdownView, "view", "expense", "income or expense")
	breakdownCmd.Flags().StringVar(&breakdownKind, "kind", "", "Income or Expense, overrides --view")
	_ = breakdownCmd.MarkFlagRequired("month")
}

func runBreakdown(cmd *cobra.Command, args []string) {
	month, err := core.ParseYearMonth(breakdownMonth)
	exitOnError(err, "invalid --month, expected YYYY-MM")

	keep, err := breakdownFilter(breakdownView, breakdownKind)
	exitOnError(err, "invalid selection")

	ctx := context.Background()
	be, err := openLedger(ctx)
	exitOnError(err, "failed to open ledger")
	defer closeLedger(be)

	groups, err := be.Service.Breakdown(ctx, month, keep)
	exitOnError(err, "failed to compute breakdown")

	if len(groups) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No transactions for %s\n", month)
		return
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t\t\n", g.Category)
		for _, s := range g.Subcategories {
			fmt.Fprintf(tw, "  %s\t%s\t\n", s.Name, s.Total.StringFixed(2))
		}
	}
	exitOnError(tw.Flush(), "failed to print breakdown")
}

func breakdownFilter(view, kind string) (summary.Filter, error) {
	if kind != "" {
		k, err := core.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		return summary.ByKind(k), nil
	}
	switch view {
	case "income":
		return summary.IncomeView(), nil
	case "expense":
		return summary.ExpenseView(), nil
	default:
		return nil, fmt.Errorf("unknown view %q, expected income or expense", view)
	}
}

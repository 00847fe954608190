package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ledger/internal/core"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Bulk import transactions from a JSON file",
	Long: `Import a JSON array of transactions, the same shape accepted by
POST /api/transactions/bulk. Use "-" to read from stdin.

Rows are validated one by one and stored verbatim, without installment
expansion. Invalid rows are skipped and reported as "row N: reason". All
valid rows are committed together or not at all.

Example:
  ledgerctl import export.json
  ledgerctl import --dry-run export.json`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate the file without storing anything")
}

func runImport(cmd *cobra.Command, args []string) {
	drafts, err := readDrafts(args[0])
	exitOnError(err, "failed to read import file")

	if importDryRun {
		valid := 0
		for i, d := range drafts {
			if _, err := d.Parse(); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "row %d: %v\n", i+1, err)
				continue
			}
			valid++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d rows are valid (dry run, nothing stored)\n", valid, len(drafts))
		return
	}

	ctx := context.Background()
	be, err := openLedger(ctx)
	exitOnError(err, "failed to open ledger")
	defer closeLedger(be)

	res, err := be.Service.Import(ctx, drafts)
	exitOnError(err, "import failed, nothing was stored")

	for _, e := range res.Errors {
		fmt.Fprintln(cmd.OutOrStdout(), e)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows, rejected %d\n", res.Inserted, len(res.Errors))
}

func readDrafts(path string) ([]core.Draft, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var drafts core.Drafts
	if err := json.NewDecoder(r).Decode(&drafts); err != nil {
		return nil, fmt.Errorf("expected a JSON array of transactions: %w", err)
	}
	return drafts, nil
}

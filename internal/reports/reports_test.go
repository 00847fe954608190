package reports

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/summary"
)

func sampleRows(t *testing.T) []summary.Row {
	t.Helper()
	tx := func(date string, kind core.Kind, cat core.Category, sub core.Subcategory, amount string) core.Transaction {
		d, err := core.ParseDate(date)
		if err != nil {
			t.Fatal(err)
		}
		return core.Transaction{
			Date:             d,
			Kind:             kind,
			Category:         cat,
			Subcategory:      sub,
			PaymentMethod:    core.DebitCard,
			Amount:           decimal.RequireFromString(amount),
			InstallmentCount: 1,
		}
	}
	return summary.Monthly([]core.Transaction{
		tx("2024-01-05", core.Income, core.IncomeCategory, "Salary", "1000"),
		tx("2024-01-10", core.Expense, core.BasicExpense, "Supermarket", "450"),
		tx("2024-02-03", core.Expense, core.WantExpense, "Delivery", "80.50"),
	})
}

func TestSummaryPDF(t *testing.T) {
	tests := []struct {
		name string
		rows []summary.Row
	}{
		{"with months", sampleRows(t)},
		{"empty ledger", summary.Monthly(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SummaryPDF(tt.rows)
			if err != nil {
				t.Fatalf("SummaryPDF() error = %v", err)
			}
			if !bytes.HasPrefix(out, []byte("%PDF-")) {
				t.Errorf("output does not start with the PDF magic: %q", out[:min(len(out), 8)])
			}
		})
	}
}

func TestSummaryChart(t *testing.T) {
	out, err := SummaryChart(sampleRows(t))
	if err != nil {
		t.Fatalf("SummaryChart() error = %v", err)
	}
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if !bytes.HasPrefix(out, pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestSummaryChart_NoData(t *testing.T) {
	if _, err := SummaryChart(summary.Monthly(nil)); !errors.Is(err, ErrNoData) {
		t.Errorf("SummaryChart(empty) error = %v, want ErrNoData", err)
	}
}

func TestBalanceMark(t *testing.T) {
	for symbol, want := range map[string]string{
		summary.BalanceUp:    "+",
		summary.BalanceDown:  "-",
		summary.BalanceEqual: "=",
	} {
		if got := balanceMark(symbol); got != want {
			t.Errorf("balanceMark(%q) = %q, want %q", symbol, got, want)
		}
	}
}

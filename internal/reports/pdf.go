// Package reports renders the monthly summary as a PDF table and as a PNG
// bar chart.
package reports

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"ledger/internal/summary"
)

type column struct {
	title string
	width float64
	value func(summary.Row) string
}

var summaryColumns = []column{
	{"Month", 30, func(r summary.Row) string {
		if r.IsTotal() {
			return r.Year
		}
		return r.Year + "-" + r.MonthNumber
	}},
	{"Income", 24, func(r summary.Row) string { return r.Income.StringFixed(2) }},
	{"Expenses", 24, func(r summary.Row) string { return r.Expenses.StringFixed(2) }},
	{"Basic", 22, func(r summary.Row) string { return r.Basic.StringFixed(2) }},
	{"Basic %", 18, func(r summary.Row) string { return r.BasicPct.StringFixed(2) }},
	{"Want", 22, func(r summary.Row) string { return r.Want.StringFixed(2) }},
	{"Want %", 18, func(r summary.Row) string { return r.WantPct.StringFixed(2) }},
	{"Savings", 22, func(r summary.Row) string { return r.Savings.StringFixed(2) }},
	{"Savings %", 20, func(r summary.Row) string { return r.SavingsPct.StringFixed(2) }},
	{"Balance", 26, func(r summary.Row) string { return r.Balance.StringFixed(2) }},
	{"", 10, func(r summary.Row) string { return balanceMark(r.BalanceSymbol) }},
}

// balanceMark maps the balance arrows to ASCII; the core PDF fonts are
// cp1252 and have no arrow glyphs.
func balanceMark(symbol string) string {
	switch symbol {
	case summary.BalanceUp:
		return "+"
	case summary.BalanceDown:
		return "-"
	default:
		return "="
	}
}

// SummaryPDF renders rows (as produced by summary.Monthly) as a landscape A4
// table.
func SummaryPDF(rows []summary.Row) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Monthly ledger summary", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Monthly ledger summary")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Budget targets: basic 60%, want 30%, savings 10% of monthly income.")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	for _, c := range summaryColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		if r.IsTotal() {
			pdf.SetFont("Helvetica", "B", 10)
		}
		for i, c := range summaryColumns {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(c.width, 7, c.value(r), "1", 0, align, false, 0, "")
		}
		pdf.Ln(7)
	}
	if len(rows) == 0 {
		pdf.Cell(0, 8, "No transactions recorded.")
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

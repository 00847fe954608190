package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledger/internal/core"
	"ledger/internal/summary"
)

func TestBreakdownFilter(t *testing.T) {
	income := core.Transaction{Kind: core.Income, Category: core.IncomeCategory}
	expense := core.Transaction{Kind: core.Expense, Category: core.WantExpense}

	tests := []struct {
		name        string
		view, kind  string
		wantErr     bool
		keepIncome  bool
		keepExpense bool
	}{
		{"income view", "income", "", false, true, false},
		{"expense view", "expense", "", false, false, true},
		{"kind overrides view", "expense", "Income", false, true, false},
		{"unknown view", "weekly", "", true, false, false},
		{"unknown kind", "", "Transfer", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep, err := breakdownFilter(tt.view, tt.kind)
			if (err != nil) != tt.wantErr {
				t.Fatalf("breakdownFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := keep(income); got != tt.keepIncome {
				t.Errorf("keep(income) = %v, want %v", got, tt.keepIncome)
			}
			if got := keep(expense); got != tt.keepExpense {
				t.Errorf("keep(expense) = %v, want %v", got, tt.keepExpense)
			}
		})
	}
}

func TestReportRenderer(t *testing.T) {
	for _, format := range []string{"pdf", "png"} {
		if _, err := reportRenderer(format); err != nil {
			t.Errorf("reportRenderer(%q) error = %v", format, err)
		}
	}
	if _, err := reportRenderer("svg"); err == nil {
		t.Error("expected error for svg")
	}
}

func TestReadDrafts(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	body := `[{"date":"2024-01-05","kind":"Expense","category":"BasicExpense","subcategory":"Housing","payment_method":"BankTransfer","amount":"500"},
{"date":"2024-01-06","kind":"Income","category":"Income","subcategory":"Salary","payment_method":"BankTransfer","amount":1000}]`
	if err := os.WriteFile(good, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	drafts, err := readDrafts(good)
	if err != nil {
		t.Fatalf("readDrafts() error = %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(drafts))
	}
	if drafts[0].Amount != "500" || drafts[1].Amount != "1000" {
		t.Errorf("amounts = %q, %q", drafts[0].Amount, drafts[1].Amount)
	}

	notArray := filepath.Join(dir, "object.json")
	if err := os.WriteFile(notArray, []byte(`{"amount":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readDrafts(notArray); err == nil {
		t.Error("expected error for a JSON object")
	}

	if _, err := readDrafts(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestMigrateDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	for i := 0; i < 2; i++ {
		version, dirty, err := migrateDatabase(path)
		if err != nil {
			t.Fatalf("run %d: migrateDatabase() error = %v", i, err)
		}
		if version != 2 || dirty {
			t.Errorf("run %d: version = %d dirty = %v, want 2 clean", i, version, dirty)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	rows := summary.Monthly([]core.Transaction{
		mustTransaction(t, core.Draft{Date: "2024-01-01", Kind: "Income", Category: "Income", Subcategory: "Salary", PaymentMethod: "BankTransfer", Amount: "1000"}),
		mustTransaction(t, core.Draft{Date: "2024-01-02", Kind: "Expense", Category: "BasicExpense", Subcategory: "Housing", PaymentMethod: "BankTransfer", Amount: "450"}),
	})

	var buf bytes.Buffer
	if err := printSummary(&buf, rows); err != nil {
		t.Fatalf("printSummary() error = %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header, one month and Total:\n%s", len(lines), out)
	}
	for _, want := range []string{"2024-01", "1000.00", "450.00", "600.00", summary.TotalLabel} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func mustTransaction(t *testing.T, d core.Draft) core.Transaction {
	t.Helper()
	tx, err := d.Parse()
	if err != nil {
		t.Fatalf("Parse(%+v): %v", d, err)
	}
	return tx
}

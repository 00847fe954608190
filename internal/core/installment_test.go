package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestExpandInstallmentsExample(t *testing.T) {
	tx := validTransaction()
	tx.InstallmentCount = 3
	tx.Note = "fridge"

	rows, err := ExpandInstallments(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDates := []string{"2024-01-15", "2024-02-15", "2024-03-15"}
	if len(rows) != len(wantDates) {
		t.Fatalf("got %d rows, want %d", len(rows), len(wantDates))
	}
	for i, row := range rows {
		if row.Date.String() != wantDates[i] {
			t.Errorf("row %d date = %s, want %s", i, row.Date, wantDates[i])
		}
		if !row.Amount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("row %d amount = %s, want 100", i, row.Amount)
		}
		if want := fmt.Sprintf("fridge (%d/3)", i+1); row.Note != want {
			t.Errorf("row %d note = %q, want %q", i, row.Note, want)
		}
		if row.InstallmentCount != 3 {
			t.Errorf("row %d installment count = %d", i, row.InstallmentCount)
		}
	}
}

func TestExpandInstallmentsAllCounts(t *testing.T) {
	total := decimal.RequireFromString("1000.01")
	tolerance := decimal.RequireFromString("0.000001")

	for n := MinInstallments; n <= MaxInstallments; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			tx := validTransaction()
			tx.Amount = total
			tx.InstallmentCount = n

			rows, err := ExpandInstallments(tx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rows) != n {
				t.Fatalf("got %d rows, want %d", len(rows), n)
			}
			share := total.Div(decimal.NewFromInt(int64(n)))
			sum := decimal.Zero
			for i, row := range rows {
				if !row.Amount.Equal(share) {
					t.Errorf("row %d amount = %s, want %s", i, row.Amount, share)
				}
				if want := tx.Date.AddMonths(i); !row.Date.Equal(want.Time) {
					t.Errorf("row %d date = %s, want %s", i, row.Date, want)
				}
				sum = sum.Add(row.Amount)
			}
			if sum.Sub(total).Abs().GreaterThan(tolerance) {
				t.Errorf("sum of installments = %s, want about %s", sum, total)
			}
		})
	}
}

func TestExpandInstallmentsSingleKeepsNote(t *testing.T) {
	tx := validTransaction()
	tx.Note = "bread"
	rows, err := ExpandInstallments(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Note != "bread" || !rows[0].Amount.Equal(tx.Amount) {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestExpandInstallmentsEmptyNote(t *testing.T) {
	tx := validTransaction()
	tx.InstallmentCount = 2
	rows, err := ExpandInstallments(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[1].Note != "(2/2)" {
		t.Errorf("note = %q, want (2/2)", rows[1].Note)
	}
}

func TestExpandInstallmentsMonthEnd(t *testing.T) {
	tx := validTransaction()
	tx.Date = NewDate(2024, 1, 31)
	tx.InstallmentCount = 4
	rows, err := ExpandInstallments(tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}
	for i, row := range rows {
		if row.Date.String() != want[i] {
			t.Errorf("row %d date = %s, want %s", i, row.Date, want[i])
		}
	}
}

func TestExpandInstallmentsOutOfRange(t *testing.T) {
	for _, n := range []int{0, -1, 37, 100} {
		tx := validTransaction()
		tx.InstallmentCount = n
		_, err := ExpandInstallments(tx)
		if !errors.Is(err, ErrInvalidInstallments) {
			t.Errorf("n=%d: expected ErrInvalidInstallments, got %v", n, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("n=%d: expected ValidationError, got %T", n, err)
		}
	}
}

func TestNoteAtLimitSurvivesExpansion(t *testing.T) {
	for _, n := range []int{3, MaxInstallments} {
		count := n
		d := Draft{
			Date:             "2024-01-31",
			Kind:             "Expense",
			Category:         "BasicExpense",
			Subcategory:      "Housing",
			PaymentMethod:    "CreditCard",
			Amount:           "900",
			Note:             strings.Repeat("n", MaxNoteLength),
			InstallmentCount: &count,
		}
		tx, err := d.Parse()
		if err != nil {
			t.Fatalf("n=%d: Parse() error = %v", n, err)
		}
		rows, err := ExpandInstallments(tx)
		if err != nil {
			t.Fatalf("n=%d: ExpandInstallments() error = %v", n, err)
		}
		for i, row := range rows {
			if err := row.Validate(); err != nil {
				t.Errorf("n=%d row %d (note %d chars): Validate() error = %v", n, i+1, len(row.Note), err)
			}
		}
	}
}

func TestNoteOverLimitRejected(t *testing.T) {
	d := Draft{
		Date:          "2024-01-31",
		Kind:          "Expense",
		Category:      "BasicExpense",
		Subcategory:   "Housing",
		PaymentMethod: "CreditCard",
		Amount:        "900",
		Note:          strings.Repeat("n", MaxNoteLength+1),
	}
	_, err := d.Parse()
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "note" {
		t.Fatalf("Parse() error = %v, want note validation error", err)
	}
}

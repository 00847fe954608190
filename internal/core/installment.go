package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ExpandInstallments splits t into t.InstallmentCount rows. Row i is dated
// i months after t.Date (day clamped to the month's end), carries
// t.Amount / N and has "(i/N)" appended to its note. No rounding correction
// is applied across rows. A count of 1 returns t unchanged.
func ExpandInstallments(t Transaction) ([]Transaction, error) {
	n := t.InstallmentCount
	if n < MinInstallments || n > MaxInstallments {
		return nil, invalid("installment_count", ErrInvalidInstallments)
	}
	if n == 1 {
		return []Transaction{t}, nil
	}

	share := t.Amount.Div(decimal.NewFromInt(int64(n)))
	rows := make([]Transaction, n)
	for i := range rows {
		row := t
		row.ID = 0
		row.Date = t.Date.AddMonths(i)
		row.Amount = share
		row.Note = installmentNote(t.Note, i+1, n)
		rows[i] = row
	}
	return rows, nil
}

func installmentNote(note string, position, count int) string {
	tag := fmt.Sprintf("(%d/%d)", position, count)
	if note == "" {
		return tag
	}
	return note + " " + tag
}

// Package summary derives the monthly budget-adherence views from ledger
// rows. Every function here is pure: callers load the rows and pass them in.
package summary

import (
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

const (
	BalanceUp    = "↑"
	BalanceDown  = "↓"
	BalanceEqual = "="

	// TotalLabel is the Year value of the trailing aggregate row.
	TotalLabel = "Total"
)

// Budget split of monthly income (60/30/10 rule).
var (
	basicShare   = decimal.RequireFromString("0.6")
	wantShare    = decimal.RequireFromString("0.3")
	savingsShare = decimal.RequireFromString("0.1")
	hundred      = decimal.NewFromInt(100)
)

// Row is one line of the monthly summary. For the trailing total row Year
// is "Total" and Month and MonthNumber are empty.
type Row struct {
	Year        string
	MonthNumber string
	Month       string

	Income   decimal.Decimal
	Expenses decimal.Decimal
	Basic    decimal.Decimal
	Want     decimal.Decimal
	Savings  decimal.Decimal

	BasicBudget   decimal.Decimal
	WantBudget    decimal.Decimal
	SavingsBudget decimal.Decimal

	BasicPct   decimal.Decimal
	WantPct    decimal.Decimal
	SavingsPct decimal.Decimal

	Balance       decimal.Decimal
	BalanceSymbol string
}

// IsTotal reports whether r is the trailing aggregate row.
func (r Row) IsTotal() bool { return r.Year == TotalLabel }

type bucket struct {
	month                                  core.YearMonth
	income, expenses, basic, want, savings decimal.Decimal
}

func (b *bucket) add(t core.Transaction) {
	switch t.Kind {
	case core.Income:
		b.income = b.income.Add(t.Amount)
	case core.Expense:
		b.expenses = b.expenses.Add(t.Amount)
	}
	switch t.Category {
	case core.BasicExpense:
		b.basic = b.basic.Add(t.Amount)
	case core.WantExpense:
		b.want = b.want.Add(t.Amount)
	case core.Savings, core.Investment:
		b.savings = b.savings.Add(t.Amount)
	}
}

// Monthly groups rows by the calendar month of their date and returns one
// Row per month, most recent first, followed by the Total row.
func Monthly(rows []core.Transaction) []Row {
	byMonth := make(map[core.YearMonth]*bucket)
	for _, t := range rows {
		ym := t.Date.YearMonth()
		b, ok := byMonth[ym]
		if !ok {
			b = &bucket{month: ym}
			byMonth[ym] = b
		}
		b.add(t)
	}

	buckets := make([]*bucket, 0, len(byMonth))
	for _, b := range byMonth {
		buckets = append(buckets, b)
	}
	slices.SortFunc(buckets, func(a, b *bucket) int {
		switch {
		case b.month.Before(a.month):
			return -1
		case a.month.Before(b.month):
			return 1
		}
		return 0
	})

	out := make([]Row, 0, len(buckets)+1)
	var total bucket
	for _, b := range buckets {
		r := monthRow(b)
		out = append(out, r)

		total.income = total.income.Add(r.Income)
		total.expenses = total.expenses.Add(r.Expenses)
		total.basic = total.basic.Add(r.Basic)
		total.want = total.want.Add(r.Want)
		total.savings = total.savings.Add(r.Savings)
	}
	return append(out, totalRow(&total))
}

func monthRow(b *bucket) Row {
	r := derive(
		b.income.Round(2),
		b.expenses.Round(2),
		b.basic.Round(2),
		b.want.Round(2),
		b.savings.Round(2),
	)
	r.Year = strconv.Itoa(b.month.Year)
	r.MonthNumber = b.month.String()[5:]
	r.Month = b.month.String()
	switch r.Balance.Sign() {
	case 1:
		r.BalanceSymbol = BalanceUp
	case -1:
		r.BalanceSymbol = BalanceDown
	default:
		r.BalanceSymbol = BalanceEqual
	}
	return r
}

// totalRow never reports an even balance: anything not positive is "↓".
func totalRow(b *bucket) Row {
	r := derive(b.income, b.expenses, b.basic, b.want, b.savings)
	r.Year = TotalLabel
	if r.Balance.IsPositive() {
		r.BalanceSymbol = BalanceUp
	} else {
		r.BalanceSymbol = BalanceDown
	}
	return r
}

func derive(income, expenses, basic, want, savings decimal.Decimal) Row {
	return Row{
		Income:        income.Round(2),
		Expenses:      expenses.Round(2),
		Basic:         basic.Round(2),
		Want:          want.Round(2),
		Savings:       savings.Round(2),
		BasicBudget:   income.Mul(basicShare).Round(2),
		WantBudget:    income.Mul(wantShare).Round(2),
		SavingsBudget: income.Mul(savingsShare).Round(2),
		BasicPct:      percentOf(basic, income),
		WantPct:       percentOf(want, income),
		SavingsPct:    percentOf(savings, income),
		Balance:       income.Sub(expenses).Round(2),
	}
}

// percentOf returns part as a percentage of whole, rounded to 2 decimals,
// and 0 when whole is 0.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

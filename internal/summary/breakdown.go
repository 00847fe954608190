package summary

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Filter selects the rows that take part in a breakdown.
type Filter func(core.Transaction) bool

// ByKind keeps rows of the given kind.
func ByKind(k core.Kind) Filter {
	return func(t core.Transaction) bool { return t.Kind == k }
}

// IncomeView keeps income rows and savings deposits.
func IncomeView() Filter {
	return func(t core.Transaction) bool {
		return t.Kind == core.Income || t.Category == core.Savings
	}
}

// ExpenseView keeps basic and want expenses.
func ExpenseView() Filter {
	return func(t core.Transaction) bool {
		return t.Kind == core.Expense && (t.Category == core.BasicExpense || t.Category == core.WantExpense)
	}
}

// SubcategoryTotal is the summed amount of one subcategory.
type SubcategoryTotal struct {
	Name  core.Subcategory
	Total decimal.Decimal
}

// CategoryBreakdown groups the subcategory totals of one category.
type CategoryBreakdown struct {
	Category      core.Category
	Subcategories []SubcategoryTotal
}

// Breakdown sums the amounts of rows in month accepted by keep, grouped by
// (category, subcategory). Categories and subcategories are returned in
// alphabetical order.
func Breakdown(rows []core.Transaction, month core.YearMonth, keep Filter) []CategoryBreakdown {
	type key struct {
		cat core.Category
		sub core.Subcategory
	}
	sums := make(map[key]decimal.Decimal)
	for _, t := range rows {
		if t.Date.YearMonth() != month || !keep(t) {
			continue
		}
		k := key{t.Category, t.Subcategory}
		sums[k] = sums[k].Add(t.Amount)
	}

	byCat := make(map[core.Category][]SubcategoryTotal)
	for k, total := range sums {
		byCat[k.cat] = append(byCat[k.cat], SubcategoryTotal{Name: k.sub, Total: total})
	}

	out := make([]CategoryBreakdown, 0, len(byCat))
	for cat, subs := range byCat {
		slices.SortFunc(subs, func(a, b SubcategoryTotal) int { return cmp.Compare(a.Name, b.Name) })
		out = append(out, CategoryBreakdown{Category: cat, Subcategories: subs})
	}
	slices.SortFunc(out, func(a, b CategoryBreakdown) int { return cmp.Compare(a.Category, b.Category) })
	return out
}

// CategoryTotal is the all-time expense total of one category.
type CategoryTotal struct {
	Category core.Category
	Total    decimal.Decimal
}

// MonthTotal is the income total of one month.
type MonthTotal struct {
	Month core.YearMonth
	Total decimal.Decimal
}

// Dashboard holds the expense totals per category and the income per month.
type Dashboard struct {
	Expenses []CategoryTotal
	Income   []MonthTotal
}

// BuildDashboard returns expense totals per category (alphabetical) and
// income totals per month (oldest first).
func BuildDashboard(rows []core.Transaction) Dashboard {
	expenses := make(map[core.Category]decimal.Decimal)
	income := make(map[core.YearMonth]decimal.Decimal)
	for _, t := range rows {
		switch t.Kind {
		case core.Expense:
			expenses[t.Category] = expenses[t.Category].Add(t.Amount)
		case core.Income:
			ym := t.Date.YearMonth()
			income[ym] = income[ym].Add(t.Amount)
		}
	}

	d := Dashboard{
		Expenses: make([]CategoryTotal, 0, len(expenses)),
		Income:   make([]MonthTotal, 0, len(income)),
	}
	for c, total := range expenses {
		d.Expenses = append(d.Expenses, CategoryTotal{Category: c, Total: total})
	}
	for m, total := range income {
		d.Income = append(d.Income, MonthTotal{Month: m, Total: total})
	}
	slices.SortFunc(d.Expenses, func(a, b CategoryTotal) int { return cmp.Compare(a.Category, b.Category) })
	slices.SortFunc(d.Income, func(a, b MonthTotal) int { return cmp.Compare(a.Month.String(), b.Month.String()) })
	return d
}

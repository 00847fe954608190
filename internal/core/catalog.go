package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Kind classifies a transaction as money in or money out.
type Kind string

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

// Category is the first level of the fixed classification taxonomy.
type Category string

const (
	BasicExpense   Category = "BasicExpense"
	WantExpense    Category = "WantExpense"
	Investment     Category = "Investment"
	Savings        Category = "Savings"
	IncomeCategory Category = "Income"
)

// Subcategory is the second level of the taxonomy. The same name may appear
// under more than one category ("Other"), so membership is always checked
// against a category.
type Subcategory string

// PaymentMethod is the account a transaction was paid from or into.
type PaymentMethod string

const (
	CreditCard   PaymentMethod = "CreditCard"
	MercadoPago  PaymentMethod = "MercadoPago"
	DebitCard    PaymentMethod = "DebitCard"
	BankTransfer PaymentMethod = "BankTransfer"
)

var (
	kinds          = []Kind{Income, Expense}
	categories     = []Category{BasicExpense, WantExpense, Investment, Savings, IncomeCategory}
	paymentMethods = []PaymentMethod{CreditCard, MercadoPago, DebitCard, BankTransfer}

	subcategories = map[Category][]Subcategory{
		BasicExpense:   {"Supermarket", "Utilities", "Transport", "Health", "Education", "Housing"},
		WantExpense:    {"Entertainment", "Delivery", "Clothing", "Debt", "Other"},
		Investment:     {"Stocks", "Bonds", "Crypto", "Other"},
		Savings:        {"Account", "FixedTerm", "Other"},
		IncomeCategory: {"Salary", "SelfEmployed", "Other"},
	}
)

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if !slices.Contains(kinds, k) {
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("invalid kind %q, must be one of: %s", s, joinNames(kinds))}
	}
	return k, nil
}

// ParseCategory returns the Category named s.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !slices.Contains(categories, c) {
		return "", &ValidationError{Field: "category", Reason: fmt.Sprintf("invalid category %q, must be one of: %s", s, joinNames(categories))}
	}
	return c, nil
}

// ParseSubcategory returns the Subcategory named s if it belongs to c.
func ParseSubcategory(c Category, s string) (Subcategory, error) {
	sub := Subcategory(strings.TrimSpace(s))
	valid := subcategories[c]
	if !slices.Contains(valid, sub) {
		return "", &ValidationError{Field: "subcategory", Reason: fmt.Sprintf("invalid subcategory %q for category %s, must be one of: %s", s, c, joinNames(valid))}
	}
	return sub, nil
}

// ParsePaymentMethod returns the PaymentMethod named s.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	pm := PaymentMethod(strings.TrimSpace(s))
	if !slices.Contains(paymentMethods, pm) {
		return "", &ValidationError{Field: "payment_method", Reason: fmt.Sprintf("invalid payment method %q, must be one of: %s", s, joinNames(paymentMethods))}
	}
	return pm, nil
}

// Catalog is the read-only view of the fixed parameter sets.
type Catalog struct {
	Kinds          []Kind
	Categories     []Category
	Subcategories  map[Category][]Subcategory
	PaymentMethods []PaymentMethod
}

// DefaultCatalog returns a copy of the fixed parameter sets. Callers may
// mutate the result without affecting validation.
func DefaultCatalog() Catalog {
	subs := make(map[Category][]Subcategory, len(subcategories))
	for c, s := range subcategories {
		subs[c] = slices.Clone(s)
	}
	return Catalog{
		Kinds:          slices.Clone(kinds),
		Categories:     slices.Clone(categories),
		Subcategories:  subs,
		PaymentMethods: slices.Clone(paymentMethods),
	}
}

func (c Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kinds          []Kind                     `json:"kinds"`
		Categories     []Category                 `json:"categories"`
		Subcategories  map[Category][]Subcategory `json:"subcategories"`
		PaymentMethods []PaymentMethod            `json:"payment_methods"`
	}{c.Kinds, c.Categories, c.Subcategories, c.PaymentMethods})
}

func joinNames[T ~string](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

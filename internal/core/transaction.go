package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinInstallments = 1
	MaxInstallments = 36

	// MaxNoteLength bounds the note a client supplies.
	MaxNoteLength = 500
	// maxStoredNoteLength leaves room for the longest installment tag.
	maxStoredNoteLength = MaxNoteLength + len(" (36/36)")
)

// Transaction is one persisted ledger row. Rows are immutable once inserted.
type Transaction struct {
	ID               int64           `json:"id"`
	Date             Date            `json:"date"`
	Kind             Kind            `json:"kind"`
	Category         Category        `json:"category"`
	Subcategory      Subcategory     `json:"subcategory"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	Amount           decimal.Decimal `json:"amount"`
	Note             string          `json:"note"`
	InstallmentCount int             `json:"installment_count"`
}

// Validate checks the row invariants: a real date, a subcategory that
// belongs to its category, enum membership, a positive amount, an
// installment count inside [1,36] and a note that still fits once an
// installment tag is appended.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return err
	}
	if _, err := ParseCategory(string(t.Category)); err != nil {
		return err
	}
	if _, err := ParseSubcategory(t.Category, string(t.Subcategory)); err != nil {
		return err
	}
	if _, err := ParsePaymentMethod(string(t.PaymentMethod)); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if t.InstallmentCount < MinInstallments || t.InstallmentCount > MaxInstallments {
		return invalid("installment_count", ErrInvalidInstallments)
	}
	if len(t.Note) > maxStoredNoteLength {
		return noteTooLong(maxStoredNoteLength)
	}
	return nil
}

func noteTooLong(limit int) *ValidationError {
	return &ValidationError{Field: "note", Reason: fmt.Sprintf("note too long (max %d characters)", limit)}
}

// Draft is an unvalidated transaction as received from a client or an
// import file. Every field is raw text so that missing and malformed values
// can be reported per field.
type Draft struct {
	Date             string
	Kind             string
	Category         string
	Subcategory      string
	PaymentMethod    string
	Amount           string
	Note             string
	InstallmentCount *int

	// decodeErr is set when the JSON element was not an object.
	decodeErr error
}

// Parse validates the draft and converts it into a Transaction. Missing
// required fields are reported together in a single ValidationError.
func (d Draft) Parse() (Transaction, error) {
	if d.decodeErr != nil {
		return Transaction{}, &ValidationError{Reason: "expected a JSON object", Err: d.decodeErr}
	}
	if missing := d.missingFields(); len(missing) > 0 {
		return Transaction{}, &ValidationError{Reason: "missing required fields: " + strings.Join(missing, ", ")}
	}

	date, err := ParseDate(strings.TrimSpace(d.Date))
	if err != nil {
		return Transaction{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d.Date), Err: err}
	}
	kind, err := ParseKind(d.Kind)
	if err != nil {
		return Transaction{}, err
	}
	category, err := ParseCategory(d.Category)
	if err != nil {
		return Transaction{}, err
	}
	sub, err := ParseSubcategory(category, d.Subcategory)
	if err != nil {
		return Transaction{}, err
	}
	method, err := ParsePaymentMethod(d.PaymentMethod)
	if err != nil {
		return Transaction{}, err
	}
	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return Transaction{}, err
	}

	note := strings.TrimSpace(d.Note)
	if len(note) > MaxNoteLength {
		return Transaction{}, noteTooLong(MaxNoteLength)
	}

	count := MinInstallments
	if d.InstallmentCount != nil {
		count = *d.InstallmentCount
	}

	t := Transaction{
		Date:             date,
		Kind:             kind,
		Category:         category,
		Subcategory:      sub,
		PaymentMethod:    method,
		Amount:           amount,
		Note:             note,
		InstallmentCount: count,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (d Draft) missingFields() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"date", d.Date},
		{"kind", d.Kind},
		{"category", d.Category},
		{"subcategory", d.Subcategory},
		{"payment_method", d.PaymentMethod},
		{"amount", d.Amount},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// ParseAmount parses a positive decimal amount. Both dot and comma are
// accepted as the decimal separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Decimal{}, invalid("amount", ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &ValidationError{Field: "amount", Reason: fmt.Sprintf("invalid amount %q, must be a number greater than 0", s), Err: errors.Join(ErrInvalidAmount, err)}
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, invalid("amount", ErrInvalidAmount)
	}
	return amount, nil
}

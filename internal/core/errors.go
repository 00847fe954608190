package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("amount must be a number greater than 0")
	ErrInvalidInstallments = errors.New("installment count must be between 1 and 36")
)

// ValidationError reports a bad field, enum value or range. It is returned
// for single inserts and collected per row during bulk import.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: err.Error(), Err: err}
}

// StoreError wraps a connectivity or IO failure of the ledger store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStore reports whether err carries a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

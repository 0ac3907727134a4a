/*
errors.go - Centralized error types for the quota engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch with errors.Is/errors.As; the structured types carry the
  numbers (limit/used/remaining) that explain a rejection to the user.

ERROR CATEGORIES:
  1. Validation errors - user-correctable rejections at mutation time
  2. Not-found errors  - dangling references; soft on reads, hard on writes
  3. Persistence errors - replication failures; never revert in-memory state
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrOutOfPeriod is returned when an invoice date falls outside the
	// active quarter's date range.
	ErrOutOfPeriod = errors.New("invoice date outside active quarter")

	// ErrQuotaExhausted is returned when a supplier has no remaining quota.
	ErrQuotaExhausted = errors.New("supplier quota exhausted")

	// ErrAmountExceedsRemaining is returned when an invoice amount is larger
	// than the supplier's remaining quota.
	ErrAmountExceedsRemaining = errors.New("amount exceeds remaining quota")

	// ErrMissingField is returned when a required field is empty or non-positive.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidQuarter is returned for quarter ids not matching YYYYQn.
	ErrInvalidQuarter = errors.New("invalid quarter identifier")

	// ErrMalformedBackup is returned when an imported backup document is
	// missing its version or data section. Nothing is applied.
	ErrMalformedBackup = errors.New("malformed backup document")

	ErrStoreNotFound    = errors.New("store not found")
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrQuarterNotFound  = errors.New("quarter snapshot not found")

	// ErrPersistence wraps failures of the external save/load collaborator.
	ErrPersistence = errors.New("persistence failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// QuotaError reports a quota rejection with the figures that explain it.
type QuotaError struct {
	SupplierID   string
	SupplierName string
	Limit        Money
	Used         Money
	Remaining    Money
	Requested    Money
	sentinel     error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%v: supplier %s limit=%s used=%s remaining=%s requested=%s",
		e.sentinel, e.SupplierName, e.Limit, e.Used, e.Remaining, e.Requested)
}

func (e *QuotaError) Unwrap() error { return e.sentinel }

// PeriodError reports an out-of-period invoice date.
type PeriodError struct {
	Date   Date
	Period DateRange
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("%v: %s not within %s", ErrOutOfPeriod, e.Date, e.Period)
}

func (e *PeriodError) Unwrap() error { return ErrOutOfPeriod }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid user input and
// should surface as a 4xx rather than a 5xx.
func IsClientError(err error) bool {
	return errors.Is(err, ErrOutOfPeriod) ||
		errors.Is(err, ErrQuotaExhausted) ||
		errors.Is(err, ErrAmountExceedsRemaining) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidQuarter) ||
		errors.Is(err, ErrMalformedBackup)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStoreNotFound) ||
		errors.Is(err, ErrSupplierNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrQuarterNotFound)
}

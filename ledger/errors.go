/*
errors.go - Centralized error types for the leave ledger

PURPOSE:
  All domain errors in one place for consistency and discoverability.
  Callers (the dispatch adapter, CLI) match with errors.Is/errors.As and
  convert to caller-visible payloads at the operation boundary; errors
  never escape as panics.

ERROR CATEGORIES:
  1. Store errors      - connection/availability failures
  2. Lookup errors     - missing employee or booking
  3. Validation errors - malformed or out-of-policy input

SEE ALSO:
  - booking.go: Produces most of these
  - api/handlers.go: Converts them to response envelopes
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStoreUnavailable is returned when the backing store cannot be
	// opened or reached. Never retried silently.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEmployeeNotFound is returned when an employee id or name does
	// not resolve to a directory record or balance row.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrBookingNotFound is returned when no booking matches
	// (employee_id, start_date) on cancellation.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidDateFormat is returned for any date not in YYYY-MM-DD form.
	ErrInvalidDateFormat = errors.New("invalid date format, use YYYY-MM-DD")

	// ErrInvalidRange is returned when end date is before start date.
	ErrInvalidRange = errors.New("end date must not be before start date")

	// ErrPastDate is returned when either date of a booking is before today.
	ErrPastDate = errors.New("cannot book leave in the past")

	// ErrInsufficientBalance is returned when the requested span exceeds
	// the available days. Wrapped by InsufficientBalanceError.
	ErrInsufficientBalance = errors.New("insufficient leave available")

	// ErrDuplicateBooking is returned when the employee already has a
	// booking starting on the requested start date. Keeps cancellation
	// by (employee_id, start_date) unambiguous.
	ErrDuplicateBooking = errors.New("booking already exists for start date")

	// ErrMissingParameter is returned when a required dispatch parameter
	// is absent. Wrapped by MissingParameterError.
	ErrMissingParameter = errors.New("missing mandatory parameter")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError carries the pre-call balance for diagnostic
// display alongside the rejected request size.
type InsufficientBalanceError struct {
	EmployeeID int64
	Available  int
	Requested  int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave available: %d days available, %d requested",
		e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// MissingParameterError names the dispatch parameter that was absent.
// It is surfaced as a hard failure before any store access.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing mandatory parameter: %s", e.Name)
}

func (e *MissingParameterError) Unwrap() error {
	return ErrMissingParameter
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input
// rather than a system fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateFormat) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrPastDate) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrDuplicateBooking) ||
		errors.Is(err, ErrMissingParameter)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrBookingNotFound)
}

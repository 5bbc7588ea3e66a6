/*
store.go - Persistence interface for the leave ledger

PURPOSE:
  Defines the interface between the domain services and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Record-level reads and writes
  TxStore: Store plus WithTx for atomic read-check-mutate sequences

NOT-FOUND CONVENTION:
  Single-record getters return (nil, nil) when no row matches. The
  services translate that into the ErrEmployeeNotFound/ErrBookingNotFound
  sentinels; the store layer stays free of domain error vocabulary.

ATOMICITY CONTRACT:
  Book and Cancel pair a booking write with a balance write. The pair
  must be applied together or not at all, so both run inside WithTx:
  begin -> read balance -> validate -> write booking + write balance ->
  commit; any error rolls back entirely. The transaction also serializes
  concurrent mutations racing on the same employee's balance.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - ledger/store: in-memory store for tests

SEE ALSO:
  - booking.go: Sole user of WithTx
*/
package ledger

import (
	"context"
	"time"
)

// Store handles persistence of employees, balances and bookings.
type Store interface {
	// FindEmployeeByName returns the employee with the exact name.
	// Duplicate names resolve deterministically to the lowest id.
	FindEmployeeByName(ctx context.Context, name string) (*Employee, error)

	// GetEmployee returns the employee record, or (nil, nil) if absent.
	GetEmployee(ctx context.Context, employeeID int64) (*Employee, error)

	// SaveEmployee inserts an employee, assigning ID when zero.
	SaveEmployee(ctx context.Context, emp *Employee) error

	// GetBalance returns the balance row, or (nil, nil) if absent.
	GetBalance(ctx context.Context, employeeID int64) (*LeaveBalance, error)

	// SaveBalance inserts or replaces the balance row.
	SaveBalance(ctx context.Context, bal LeaveBalance) error

	// AdjustBalance applies a signed delta to available_days.
	AdjustBalance(ctx context.Context, employeeID int64, delta int) error

	// ListBookings returns the employee's bookings in insertion order.
	// No bookings is an empty slice, not an error.
	ListBookings(ctx context.Context, employeeID int64) ([]LeaveBooking, error)

	// GetBookingByStart returns the booking matching
	// (employee_id, start_date), or (nil, nil) if absent.
	GetBookingByStart(ctx context.Context, employeeID int64, start time.Time) (*LeaveBooking, error)

	// InsertBooking persists a booking and assigns its RequestID.
	InsertBooking(ctx context.Context, b *LeaveBooking) error

	// DeleteBooking removes a booking by its request id.
	DeleteBooking(ctx context.Context, requestID int64) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

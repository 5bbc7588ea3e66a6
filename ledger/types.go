// Package ledger implements the leave balance ledger: the employee
// directory, per-employee vacation-day balances, and the booked leave
// calendar, together with the booking and query services that operate
// on them.
package ledger

import "time"

// DateFormat is the wire format for all calendar dates.
const DateFormat = "2006-01-02"

// EmploymentStatus is the employment state of an employee.
type EmploymentStatus string

const (
	StatusActive   EmploymentStatus = "Active"
	StatusInactive EmploymentStatus = "Inactive"
)

// Employee is a directory record. Created at provisioning time; this
// core never mutates or deletes it.
type Employee struct {
	ID          int64
	Name        string
	DateOfBirth string
	HomepageURL string
	JobTitle    string
	StartDate   string
	Status      EmploymentStatus
}

// LeaveBalance is the running count of vacation days an employee can
// still consume. One row per employee.
//
// INVARIANT: AvailableDays >= 0 at all times. Any operation that would
// drive it negative must be rejected before mutation.
type LeaveBalance struct {
	EmployeeID    int64
	AvailableDays int
}

// LeaveBooking is a committed leave reservation. Bookings are never
// updated in place; cancel-and-rebook is the only way to change dates.
type LeaveBooking struct {
	RequestID  int64
	EmployeeID int64
	StartDate  time.Time
	EndDate    time.Time
	DaysTaken  int
}

// BookingResult is returned by a successful Book call.
type BookingResult struct {
	RequestID  int64  `json:"request_id"`
	EmployeeID int64  `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	DaysTaken  int    `json:"days_taken"`
	Remaining  int    `json:"remaining_days"`
}

// CancelResult is returned by a successful Cancel call.
type CancelResult struct {
	EmployeeID   int64  `json:"employee_id"`
	StartDate    string `json:"start_date"`
	DaysRestored int    `json:"days_restored"`
	Remaining    int    `json:"remaining_days"`
}

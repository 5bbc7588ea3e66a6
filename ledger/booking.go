/*
booking.go - Booking service: the invariant-preserving core

PURPOSE:
  Orchestrates the read-check-mutate sequences that book and cancel
  leave, keeping the balance ledger and the booking calendar consistent.

INVARIANTS:
  1. available_days never goes negative. The balance check and the
     decrement happen inside one store transaction, so two concurrent
     bookings racing on the same balance cannot jointly overdraw it.
  2. A booking insert and its balance decrement are applied together or
     not at all. Same for a cancellation's delete + credit.
  3. At most one booking per (employee_id, start_date). Enforced at book
     time so that cancellation, which keys only on the start date, is
     never ambiguous.

PRECONDITION ORDER (Book):
  parse dates -> not in the past -> end >= start -> balance row exists
  -> no duplicate start -> span <= available. Short-circuits on the
  first failure; nothing touches the store until the dates are valid.

CANCELLATION:
  days_taken is recomputed from the booking's own stored end_date, never
  from caller input, to guard against tampering and drift. Crediting has
  no upper bound: the ledger tracks a running counter, not an allotment
  ceiling.

CLOCK:
  "Today" is evaluated at call time from the service clock, injectable
  for tests.

SEE ALSO:
  - calc.go: Span and date validation
  - store.go: WithTx contract
*/
package ledger

import (
	"context"
	"time"
)

// BookingService books and cancels leave against a transactional store.
type BookingService struct {
	store TxStore
	now   func() time.Time
}

// NewBookingService creates a booking service using the wall clock.
func NewBookingService(store TxStore) *BookingService {
	return &BookingService{store: store, now: time.Now}
}

// WithClock overrides the service clock. Intended for tests.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// Book reserves [startDate, endDate] (inclusive, YYYY-MM-DD) for the
// employee, decrementing their balance by the inclusive span.
func (s *BookingService) Book(ctx context.Context, employeeID int64, startDate, endDate string) (*BookingResult, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return nil, err
	}
	if err := ValidateNotPast(start, end, s.now()); err != nil {
		return nil, err
	}
	span, err := SpanDays(start, end)
	if err != nil {
		return nil, err
	}

	var result *BookingResult
	err = s.store.WithTx(ctx, func(tx Store) error {
		bal, err := tx.GetBalance(ctx, employeeID)
		if err != nil {
			return err
		}
		if bal == nil {
			return ErrEmployeeNotFound
		}
		existing, err := tx.GetBookingByStart(ctx, employeeID, start)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateBooking
		}
		if span > bal.AvailableDays {
			return &InsufficientBalanceError{
				EmployeeID: employeeID,
				Available:  bal.AvailableDays,
				Requested:  span,
			}
		}

		booking := &LeaveBooking{
			EmployeeID: employeeID,
			StartDate:  start,
			EndDate:    end,
			DaysTaken:  span,
		}
		if err := tx.InsertBooking(ctx, booking); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, employeeID, -span); err != nil {
			return err
		}

		result = &BookingResult{
			RequestID:  booking.RequestID,
			EmployeeID: employeeID,
			StartDate:  startDate,
			EndDate:    endDate,
			DaysTaken:  span,
			Remaining:  bal.AvailableDays - span,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel removes the booking starting on startDate and credits its
// stored day count back onto the balance.
func (s *BookingService) Cancel(ctx context.Context, employeeID int64, startDate string) (*CancelResult, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}

	var result *CancelResult
	err = s.store.WithTx(ctx, func(tx Store) error {
		booking, err := tx.GetBookingByStart(ctx, employeeID, start)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		// Recompute from the stored end date, not the stored day count,
		// so a drifted days_taken column cannot corrupt the credit.
		days, err := SpanDays(booking.StartDate, booking.EndDate)
		if err != nil {
			return err
		}

		if err := tx.DeleteBooking(ctx, booking.RequestID); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, employeeID, days); err != nil {
			return err
		}

		bal, err := tx.GetBalance(ctx, employeeID)
		if err != nil {
			return err
		}
		remaining := 0
		if bal != nil {
			remaining = bal.AvailableDays
		}
		result = &CancelResult{
			EmployeeID:   employeeID,
			StartDate:    startDate,
			DaysRestored: days,
			Remaining:    remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

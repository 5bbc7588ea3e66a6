package ledger

import "context"

// QueryService exposes the read-only lookups. Each call either returns
// the full result or a single error; no partial results.
type QueryService struct {
	store Store
}

func NewQueryService(store Store) *QueryService {
	return &QueryService{store: store}
}

// LookupEmployeeID resolves an exact-match name to an employee id.
// Duplicate names resolve to the lowest id.
func (s *QueryService) LookupEmployeeID(ctx context.Context, name string) (int64, error) {
	emp, err := s.store.FindEmployeeByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if emp == nil {
		return 0, ErrEmployeeNotFound
	}
	return emp.ID, nil
}

// GetEmployee returns the full directory record.
func (s *QueryService) GetEmployee(ctx context.Context, employeeID int64) (*Employee, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}
	return emp, nil
}

// GetBalance returns the employee's current available days.
func (s *QueryService) GetBalance(ctx context.Context, employeeID int64) (int, error) {
	bal, err := s.store.GetBalance(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	if bal == nil {
		return 0, ErrEmployeeNotFound
	}
	return bal.AvailableDays, nil
}

// ListBookings returns the employee's booking history in insertion
// order. An employee with no bookings yields an empty slice.
func (s *QueryService) ListBookings(ctx context.Context, employeeID int64) ([]LeaveBooking, error) {
	bookings, err := s.store.ListBookings(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []LeaveBooking{}
	}
	return bookings, nil
}

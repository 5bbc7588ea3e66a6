package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leavedesk/leavedesk/ledger"
	memstore "github.com/leavedesk/leavedesk/ledger/store"
)

func newTestQueryService(t *testing.T) (*ledger.QueryService, *memstore.Memory) {
	t.Helper()
	store := memstore.NewMemory()
	return ledger.NewQueryService(store), store
}

func TestLookupEmployeeID(t *testing.T) {
	svc, store := newTestQueryService(t)
	id := seedEmployee(t, store, "John Doe", 10)

	got, err := svc.LookupEmployeeID(context.Background(), "John Doe")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestLookupEmployeeID_UnknownName(t *testing.T) {
	svc, _ := newTestQueryService(t)

	_, err := svc.LookupEmployeeID(context.Background(), "Nobody")
	assert.ErrorIs(t, err, ledger.ErrEmployeeNotFound)
}

func TestLookupEmployeeID_DuplicateNames_LowestIDWins(t *testing.T) {
	svc, store := newTestQueryService(t)
	first := seedEmployee(t, store, "Jane Smith", 10)
	seedEmployee(t, store, "Jane Smith", 20)

	got, err := svc.LookupEmployeeID(context.Background(), "Jane Smith")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestGetEmployee(t *testing.T) {
	svc, store := newTestQueryService(t)
	ctx := context.Background()

	emp := &ledger.Employee{
		Name:        "Bob Johnson",
		DateOfBirth: "1987-03-12",
		HomepageURL: "https://www.linkedin.com/in/bob-johnson",
		JobTitle:    "Developer",
		StartDate:   "2018-04-02",
		Status:      ledger.StatusActive,
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := svc.GetEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, emp, got)

	_, err = svc.GetEmployee(ctx, 999)
	assert.ErrorIs(t, err, ledger.ErrEmployeeNotFound)
}

func TestGetBalance(t *testing.T) {
	svc, store := newTestQueryService(t)
	emp := seedEmployee(t, store, "Tom Brown", 12)

	days, err := svc.GetBalance(context.Background(), emp)
	require.NoError(t, err)
	assert.Equal(t, 12, days)

	_, err = svc.GetBalance(context.Background(), 999)
	assert.ErrorIs(t, err, ledger.ErrEmployeeNotFound)
}

func TestListBookings_EmptyIsNotAnError(t *testing.T) {
	svc, store := newTestQueryService(t)
	emp := seedEmployee(t, store, "Emily Davis", 10)

	bookings, err := svc.ListBookings(context.Background(), emp)
	require.NoError(t, err)
	assert.NotNil(t, bookings)
	assert.Empty(t, bookings)
}

func TestListBookings_InsertionOrder(t *testing.T) {
	svc, store := newTestQueryService(t)
	emp := seedEmployee(t, store, "Michael Wilson", 30)
	ctx := context.Background()

	for _, start := range []string{"2030-03-01", "2030-01-01", "2030-02-01"} {
		b := &ledger.LeaveBooking{
			EmployeeID: emp,
			StartDate:  date(start),
			EndDate:    date(start),
			DaysTaken:  1,
		}
		require.NoError(t, store.InsertBooking(ctx, b))
	}

	bookings, err := svc.ListBookings(ctx, emp)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.Equal(t, date("2030-03-01"), bookings[0].StartDate)
	assert.Equal(t, date("2030-01-01"), bookings[1].StartDate)
	assert.Equal(t, date("2030-02-01"), bookings[2].StartDate)
}

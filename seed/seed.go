/*
Package seed populates a ledger store with generated sample data:
employees with realistic names, job titles and homepages, a balance row
per employee, and a handful of future bookings consistent with that
balance.

Generation is split from loading: records are produced up front with
gofakeit, then written concurrently in an errgroup, one transaction per
employee, so a failed employee never leaves a half-written record.
*/
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit"
	"golang.org/x/sync/errgroup"

	"github.com/leavedesk/leavedesk/ledger"
)

// Options controls data generation.
type Options struct {
	Employees int   // number of employees to create (default 10)
	Seed      int64 // non-zero for reproducible output
}

// record is one employee's generated state before loading.
type record struct {
	employee ledger.Employee
	balance  int
	bookings []ledger.LeaveBooking
}

// Populate fills the store with sample data.
func Populate(ctx context.Context, store ledger.TxStore, opts Options) error {
	n := opts.Employees
	if n <= 0 {
		n = 10
	}
	// gofakeit seeds from the clock when given 0.
	gofakeit.Seed(opts.Seed)

	records := make([]record, n)
	for i := range records {
		records[i] = generate()
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range records {
		rec := &records[i]
		g.Go(func() error {
			return load(ctx, store, rec)
		})
	}
	return g.Wait()
}

func generate() record {
	now := time.Now()

	rec := record{
		employee: ledger.Employee{
			Name:        gofakeit.Name(),
			DateOfBirth: gofakeit.DateRange(now.AddDate(-60, 0, 0), now.AddDate(-21, 0, 0)).Format(ledger.DateFormat),
			HomepageURL: gofakeit.URL(),
			JobTitle:    gofakeit.JobTitle(),
			StartDate:   gofakeit.DateRange(now.AddDate(-10, 0, 0), now).Format(ledger.DateFormat),
			Status:      ledger.EmploymentStatus(gofakeit.RandString([]string{"Active", "Inactive"})),
		},
		balance: gofakeit.Number(10, 30),
	}

	// A few future bookings, each consuming from the balance so that
	// available_days stays consistent with the booking calendar.
	start := ledger.DateOnly(now).AddDate(0, 1, gofakeit.Number(0, 14))
	for i := 0; i < gofakeit.Number(0, 3); i++ {
		span := gofakeit.Number(1, 5)
		if span > rec.balance {
			break
		}
		end := start.AddDate(0, 0, span-1)
		rec.bookings = append(rec.bookings, ledger.LeaveBooking{
			StartDate: start,
			EndDate:   end,
			DaysTaken: span,
		})
		rec.balance -= span
		start = end.AddDate(0, 0, gofakeit.Number(7, 30))
	}
	return rec
}

func load(ctx context.Context, store ledger.TxStore, rec *record) error {
	return store.WithTx(ctx, func(tx ledger.Store) error {
		if err := tx.SaveEmployee(ctx, &rec.employee); err != nil {
			return fmt.Errorf("failed to save employee %q: %w", rec.employee.Name, err)
		}
		if err := tx.SaveBalance(ctx, ledger.LeaveBalance{
			EmployeeID:    rec.employee.ID,
			AvailableDays: rec.balance,
		}); err != nil {
			return err
		}
		for i := range rec.bookings {
			rec.bookings[i].EmployeeID = rec.employee.ID
			if err := tx.InsertBooking(ctx, &rec.bookings[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

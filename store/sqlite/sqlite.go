/*
Package sqlite provides the SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore using SQLite. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees:      Directory records (provisioned, never mutated here)
  leave_balances: One running available-days counter per employee
  leave_bookings: Committed leave reservations

INVARIANT ENFORCEMENT:
  The booking service validates before mutating, and the schema backs it
  up with
  - CHECK (available_days >= 0) on leave_balances
  - UNIQUE (employee_id, start_date) on leave_bookings

TRANSACTIONS:
  WithTx opens a database transaction and hands the caller a store view
  bound to it. All reads and writes inside the callback go through the
  transaction, so a balance check and its decrement are serialized
  against concurrent calls for the same employee.

WAL MODE:
  The database is opened with WAL and foreign keys on. Multiple readers
  don't block; a single writer at a time.

USAGE:
  store, err := sqlite.New("./data/leavedesk.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/leavedesk/leavedesk/ledger"
)

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database. A failure to open or reach
// the database surfaces as ledger.ErrStoreUnavailable.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrStoreUnavailable, err)
	}
	// A single connection keeps ":memory:" databases alive across calls;
	// the store mutex serializes access anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ledger.ErrStoreUnavailable, err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		employee_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		date_of_birth TEXT NOT NULL DEFAULT '',
		homepage_url TEXT NOT NULL DEFAULT '',
		job_title TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		employment_status TEXT NOT NULL DEFAULT 'Active'
	);

	CREATE INDEX IF NOT EXISTS idx_employees_name ON employees(name);

	CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id INTEGER PRIMARY KEY,
		available_days INTEGER NOT NULL CHECK (available_days >= 0),
		FOREIGN KEY(employee_id) REFERENCES employees(employee_id)
	);

	CREATE TABLE IF NOT EXISTS leave_bookings (
		request_id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days_taken INTEGER NOT NULL,
		FOREIGN KEY(employee_id) REFERENCES employees(employee_id)
	);

	-- One booking per (employee, start date) keeps cancellation by
	-- start date unambiguous.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_employee_start
		ON leave_bookings(employee_id, start_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier abstracts *sql.DB and *sql.Tx so the same statement helpers
// serve both direct calls and WithTx callbacks.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ ledger.TxStore = (*Store)(nil)

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) FindEmployeeByName(ctx context.Context, name string) (*ledger.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findEmployeeByName(ctx, s.db, name)
}

func findEmployeeByName(ctx context.Context, q querier, name string) (*ledger.Employee, error) {
	// Lowest id wins on duplicate names: deterministic tie-break.
	row := q.QueryRowContext(ctx, `
		SELECT employee_id, name, date_of_birth, homepage_url, job_title, start_date, employment_status
		FROM employees
		WHERE name = ?
		ORDER BY employee_id ASC
		LIMIT 1
	`, name)
	return scanEmployee(row)
}

func (s *Store) GetEmployee(ctx context.Context, employeeID int64) (*ledger.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, employeeID)
}

func getEmployee(ctx context.Context, q querier, employeeID int64) (*ledger.Employee, error) {
	row := q.QueryRowContext(ctx, `
		SELECT employee_id, name, date_of_birth, homepage_url, job_title, start_date, employment_status
		FROM employees
		WHERE employee_id = ?
	`, employeeID)
	return scanEmployee(row)
}

func scanEmployee(row *sql.Row) (*ledger.Employee, error) {
	var emp ledger.Employee
	var status string
	err := row.Scan(&emp.ID, &emp.Name, &emp.DateOfBirth, &emp.HomepageURL,
		&emp.JobTitle, &emp.StartDate, &status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan employee: %w", err)
	}
	emp.Status = ledger.EmploymentStatus(status)
	return &emp, nil
}

func (s *Store) SaveEmployee(ctx context.Context, emp *ledger.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, emp)
}

func saveEmployee(ctx context.Context, q querier, emp *ledger.Employee) error {
	if emp.ID != 0 {
		_, err := q.ExecContext(ctx, `
			INSERT INTO employees (employee_id, name, date_of_birth, homepage_url, job_title, start_date, employment_status)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, emp.ID, emp.Name, emp.DateOfBirth, emp.HomepageURL, emp.JobTitle, emp.StartDate, string(emp.Status))
		return err
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO employees (name, date_of_birth, homepage_url, job_title, start_date, employment_status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, emp.Name, emp.DateOfBirth, emp.HomepageURL, emp.JobTitle, emp.StartDate, string(emp.Status))
	if err != nil {
		return err
	}
	emp.ID, err = res.LastInsertId()
	return err
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, employeeID int64) (*ledger.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBalance(ctx, s.db, employeeID)
}

func getBalance(ctx context.Context, q querier, employeeID int64) (*ledger.LeaveBalance, error) {
	var bal ledger.LeaveBalance
	err := q.QueryRowContext(ctx,
		"SELECT employee_id, available_days FROM leave_balances WHERE employee_id = ?",
		employeeID,
	).Scan(&bal.EmployeeID, &bal.AvailableDays)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan balance: %w", err)
	}
	return &bal, nil
}

func (s *Store) SaveBalance(ctx context.Context, bal ledger.LeaveBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBalance(ctx, s.db, bal)
}

func saveBalance(ctx context.Context, q querier, bal ledger.LeaveBalance) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_balances (employee_id, available_days)
		VALUES (?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			available_days = excluded.available_days
	`, bal.EmployeeID, bal.AvailableDays)
	return err
}

func (s *Store) AdjustBalance(ctx context.Context, employeeID int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return adjustBalance(ctx, s.db, employeeID, delta)
}

func adjustBalance(ctx context.Context, q querier, employeeID int64, delta int) error {
	res, err := q.ExecContext(ctx, `
		UPDATE leave_balances
		SET available_days = available_days + ?
		WHERE employee_id = ?
	`, delta, employeeID)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrEmployeeNotFound
	}
	return nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

func (s *Store) ListBookings(ctx context.Context, employeeID int64) ([]ledger.LeaveBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listBookings(ctx, s.db, employeeID)
}

func listBookings(ctx context.Context, q querier, employeeID int64) ([]ledger.LeaveBooking, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT request_id, employee_id, start_date, end_date, days_taken
		FROM leave_bookings
		WHERE employee_id = ?
		ORDER BY request_id ASC
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []ledger.LeaveBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *Store) GetBookingByStart(ctx context.Context, employeeID int64, start time.Time) (*ledger.LeaveBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBookingByStart(ctx, s.db, employeeID, start)
}

func getBookingByStart(ctx context.Context, q querier, employeeID int64, start time.Time) (*ledger.LeaveBooking, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT request_id, employee_id, start_date, end_date, days_taken
		FROM leave_bookings
		WHERE employee_id = ? AND start_date = ?
		LIMIT 1
	`, employeeID, start.Format(ledger.DateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query booking: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	b, err := scanBooking(rows)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBooking(rows *sql.Rows) (ledger.LeaveBooking, error) {
	var b ledger.LeaveBooking
	var startDate, endDate string

	if err := rows.Scan(&b.RequestID, &b.EmployeeID, &startDate, &endDate, &b.DaysTaken); err != nil {
		return b, fmt.Errorf("failed to scan booking: %w", err)
	}

	// A malformed stored date must fail the operation; parsing it as the
	// zero time would feed a bogus span into cancellation credits.
	var err error
	b.StartDate, err = time.Parse(ledger.DateFormat, startDate)
	if err != nil {
		return b, fmt.Errorf("failed to scan booking: bad start_date %q: %w", startDate, err)
	}
	b.EndDate, err = time.Parse(ledger.DateFormat, endDate)
	if err != nil {
		return b, fmt.Errorf("failed to scan booking: bad end_date %q: %w", endDate, err)
	}
	return b, nil
}

func (s *Store) InsertBooking(ctx context.Context, b *ledger.LeaveBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertBooking(ctx, s.db, b)
}

func insertBooking(ctx context.Context, q querier, b *ledger.LeaveBooking) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO leave_bookings (employee_id, start_date, end_date, days_taken)
		VALUES (?, ?, ?, ?)
	`, b.EmployeeID, b.StartDate.Format(ledger.DateFormat), b.EndDate.Format(ledger.DateFormat), b.DaysTaken)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateBooking
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	b.RequestID, err = res.LastInsertId()
	return err
}

func (s *Store) DeleteBooking(ctx context.Context, requestID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteBooking(ctx, s.db, requestID)
}

func deleteBooking(ctx context.Context, q querier, requestID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM leave_bookings WHERE request_id = ?", requestID)
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. All store calls
// made through the callback argument run on that transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes every store call through the open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) FindEmployeeByName(ctx context.Context, name string) (*ledger.Employee, error) {
	return findEmployeeByName(ctx, ts.tx, name)
}

func (ts *txStore) GetEmployee(ctx context.Context, id int64) (*ledger.Employee, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) SaveEmployee(ctx context.Context, emp *ledger.Employee) error {
	return saveEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) GetBalance(ctx context.Context, id int64) (*ledger.LeaveBalance, error) {
	return getBalance(ctx, ts.tx, id)
}

func (ts *txStore) SaveBalance(ctx context.Context, bal ledger.LeaveBalance) error {
	return saveBalance(ctx, ts.tx, bal)
}

func (ts *txStore) AdjustBalance(ctx context.Context, id int64, delta int) error {
	return adjustBalance(ctx, ts.tx, id, delta)
}

func (ts *txStore) ListBookings(ctx context.Context, id int64) ([]ledger.LeaveBooking, error) {
	return listBookings(ctx, ts.tx, id)
}

func (ts *txStore) GetBookingByStart(ctx context.Context, id int64, start time.Time) (*ledger.LeaveBooking, error) {
	return getBookingByStart(ctx, ts.tx, id, start)
}

func (ts *txStore) InsertBooking(ctx context.Context, b *ledger.LeaveBooking) error {
	return insertBooking(ctx, ts.tx, b)
}

func (ts *txStore) DeleteBooking(ctx context.Context, requestID int64) error {
	return deleteBooking(ctx, ts.tx, requestID)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"leave_bookings", "leave_balances", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Dump writes every table's columns and rows to w. This is the
// record-dump utility behind "leavectl dump".
func (s *Store) Dump(ctx context.Context, w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, table := range tables {
		if err := s.dumpTable(ctx, w, table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) dumpTable(ctx context.Context, w io.Writer, table string) error {
	fmt.Fprintf(w, "\n--- Table: %s ---\n", table)

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, strings.Join(cols, " | "))

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		fields := make([]string, len(values))
		for i, v := range values {
			switch val := v.(type) {
			case nil:
				fields[i] = "NULL"
			case []byte:
				fields[i] = string(val)
			default:
				fields[i] = fmt.Sprintf("%v", val)
			}
		}
		fmt.Fprintln(w, strings.Join(fields, " | "))
		count++
	}
	if count == 0 {
		fmt.Fprintln(w, "No records found in this table.")
	}
	return rows.Err()
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

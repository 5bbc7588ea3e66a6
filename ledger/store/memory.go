// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/leavedesk/leavedesk/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a mutex-guarded in-memory store. WithTx holds the write
// lock across the whole callback, so transactions serialize; state is
// snapshotted up front and restored when fn fails, giving the same
// all-or-nothing semantics as a database transaction.
type Memory struct {
	mu        sync.RWMutex
	employees map[int64]ledger.Employee
	balances  map[int64]int
	bookings  []ledger.LeaveBooking
	nextEmp   int64
	nextReq   int64
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[int64]ledger.Employee),
		balances:  make(map[int64]int),
		nextEmp:   1,
		nextReq:   1,
	}
}

var _ ledger.TxStore = (*Memory)(nil)

func (m *Memory) FindEmployeeByName(_ context.Context, name string) (*ledger.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findEmployeeByNameLocked(name), nil
}

func (m *Memory) findEmployeeByNameLocked(name string) *ledger.Employee {
	var match *ledger.Employee
	for id, emp := range m.employees {
		if emp.Name != name {
			continue
		}
		if match == nil || id < match.ID {
			e := emp
			match = &e
		}
	}
	return match
}

func (m *Memory) GetEmployee(_ context.Context, employeeID int64) (*ledger.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployeeLocked(employeeID), nil
}

func (m *Memory) getEmployeeLocked(employeeID int64) *ledger.Employee {
	emp, ok := m.employees[employeeID]
	if !ok {
		return nil
	}
	return &emp
}

func (m *Memory) SaveEmployee(_ context.Context, emp *ledger.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveEmployeeLocked(emp)
	return nil
}

func (m *Memory) saveEmployeeLocked(emp *ledger.Employee) {
	if emp.ID == 0 {
		emp.ID = m.nextEmp
		m.nextEmp++
	} else if emp.ID >= m.nextEmp {
		m.nextEmp = emp.ID + 1
	}
	m.employees[emp.ID] = *emp
}

func (m *Memory) GetBalance(_ context.Context, employeeID int64) (*ledger.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBalanceLocked(employeeID), nil
}

func (m *Memory) getBalanceLocked(employeeID int64) *ledger.LeaveBalance {
	days, ok := m.balances[employeeID]
	if !ok {
		return nil
	}
	return &ledger.LeaveBalance{EmployeeID: employeeID, AvailableDays: days}
}

func (m *Memory) SaveBalance(_ context.Context, bal ledger.LeaveBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveBalanceLocked(bal)
	return nil
}

func (m *Memory) saveBalanceLocked(bal ledger.LeaveBalance) {
	m.balances[bal.EmployeeID] = bal.AvailableDays
}

func (m *Memory) AdjustBalance(_ context.Context, employeeID int64, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adjustBalanceLocked(employeeID, delta)
}

func (m *Memory) adjustBalanceLocked(employeeID int64, delta int) error {
	// No row, no adjustment: matches the sqlite zero-rows-affected case.
	if _, ok := m.balances[employeeID]; !ok {
		return ledger.ErrEmployeeNotFound
	}
	m.balances[employeeID] += delta
	return nil
}

func (m *Memory) ListBookings(_ context.Context, employeeID int64) ([]ledger.LeaveBooking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listBookingsLocked(employeeID), nil
}

func (m *Memory) listBookingsLocked(employeeID int64) []ledger.LeaveBooking {
	var out []ledger.LeaveBooking
	for _, b := range m.bookings {
		if b.EmployeeID == employeeID {
			out = append(out, b)
		}
	}
	return out
}

func (m *Memory) GetBookingByStart(_ context.Context, employeeID int64, start time.Time) (*ledger.LeaveBooking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBookingByStartLocked(employeeID, start), nil
}

func (m *Memory) getBookingByStartLocked(employeeID int64, start time.Time) *ledger.LeaveBooking {
	for _, b := range m.bookings {
		if b.EmployeeID == employeeID && b.StartDate.Equal(start) {
			booking := b
			return &booking
		}
	}
	return nil
}

func (m *Memory) InsertBooking(_ context.Context, b *ledger.LeaveBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertBookingLocked(b)
	return nil
}

func (m *Memory) insertBookingLocked(b *ledger.LeaveBooking) {
	b.RequestID = m.nextReq
	m.nextReq++
	m.bookings = append(m.bookings, *b)
}

func (m *Memory) DeleteBooking(_ context.Context, requestID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteBookingLocked(requestID)
	return nil
}

func (m *Memory) deleteBookingLocked(requestID int64) {
	for i, b := range m.bookings {
		if b.RequestID == requestID {
			m.bookings = append(m.bookings[:i], m.bookings[i+1:]...)
			return
		}
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn with the write lock held for its whole duration, so a
// transaction's read-check-mutate sequence never interleaves with
// another transaction or with direct store calls. The pre-call snapshot
// is restored when fn fails.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshotLocked()
	if err := fn(&txView{m}); err != nil {
		m.restoreLocked(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	employees map[int64]ledger.Employee
	balances  map[int64]int
	bookings  []ledger.LeaveBooking
	nextEmp   int64
	nextReq   int64
}

func (m *Memory) snapshotLocked() memSnapshot {
	snap := memSnapshot{
		employees: make(map[int64]ledger.Employee, len(m.employees)),
		balances:  make(map[int64]int, len(m.balances)),
		bookings:  append([]ledger.LeaveBooking(nil), m.bookings...),
		nextEmp:   m.nextEmp,
		nextReq:   m.nextReq,
	}
	for k, v := range m.employees {
		snap.employees[k] = v
	}
	for k, v := range m.balances {
		snap.balances[k] = v
	}
	return snap
}

func (m *Memory) restoreLocked(snap memSnapshot) {
	m.employees = snap.employees
	m.balances = snap.balances
	m.bookings = snap.bookings
	m.nextEmp = snap.nextEmp
	m.nextReq = snap.nextReq
}

// txView is the store handed to WithTx callbacks. The parent's lock is
// already held, so every call goes straight to the unlocked accessors.
type txView struct {
	parent *Memory
}

func (t *txView) FindEmployeeByName(_ context.Context, name string) (*ledger.Employee, error) {
	return t.parent.findEmployeeByNameLocked(name), nil
}

func (t *txView) GetEmployee(_ context.Context, id int64) (*ledger.Employee, error) {
	return t.parent.getEmployeeLocked(id), nil
}

func (t *txView) SaveEmployee(_ context.Context, emp *ledger.Employee) error {
	t.parent.saveEmployeeLocked(emp)
	return nil
}

func (t *txView) GetBalance(_ context.Context, id int64) (*ledger.LeaveBalance, error) {
	return t.parent.getBalanceLocked(id), nil
}

func (t *txView) SaveBalance(_ context.Context, bal ledger.LeaveBalance) error {
	t.parent.saveBalanceLocked(bal)
	return nil
}

func (t *txView) AdjustBalance(_ context.Context, id int64, delta int) error {
	return t.parent.adjustBalanceLocked(id, delta)
}

func (t *txView) ListBookings(_ context.Context, id int64) ([]ledger.LeaveBooking, error) {
	return t.parent.listBookingsLocked(id), nil
}

func (t *txView) GetBookingByStart(_ context.Context, id int64, start time.Time) (*ledger.LeaveBooking, error) {
	return t.parent.getBookingByStartLocked(id, start), nil
}

func (t *txView) InsertBooking(_ context.Context, b *ledger.LeaveBooking) error {
	t.parent.insertBookingLocked(b)
	return nil
}

func (t *txView) DeleteBooking(_ context.Context, requestID int64) error {
	t.parent.deleteBookingLocked(requestID)
	return nil
}

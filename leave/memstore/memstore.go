// Package memstore is an in-memory leave.Store for tests and local runs.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/santamargarita/leave-engine/generic"
	"github.com/santamargarita/leave-engine/generic/store"
	"github.com/santamargarita/leave-engine/leave"
)

// Store keeps the roster and requests in maps and the ledger in a
// store.TxMemory. WithTx snapshots the maps and rolls them back together
// with the ledger when fn fails.
type Store struct {
	*store.TxMemory

	mu        sync.RWMutex
	employees map[generic.EntityID]leave.Employee
	requests  map[leave.RequestID]leave.Request
}

var _ leave.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		TxMemory:  store.NewTxMemory(),
		employees: make(map[generic.EntityID]leave.Employee),
		requests:  make(map[leave.RequestID]leave.Request),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) GetEmployee(_ context.Context, id generic.EntityID) (leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployee(id)
}

func (s *Store) getEmployee(id generic.EntityID) (leave.Employee, error) {
	emp, ok := s.employees[id]
	if !ok {
		return leave.Employee{}, leave.ErrEmployeeNotFound
	}
	return cloneEmployee(emp), nil
}

func (s *Store) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEmployees(), nil
}

func (s *Store) listEmployees() []leave.Employee {
	out := make([]leave.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, cloneEmployee(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) CreateEmployee(_ context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createEmployee(emp)
}

func (s *Store) createEmployee(emp leave.Employee) error {
	if _, ok := s.employees[emp.ID]; ok {
		return leave.ErrEmployeeExists
	}
	s.employees[emp.ID] = cloneEmployee(emp)
	return nil
}

func (s *Store) UpdateEmployee(_ context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateEmployee(emp)
}

func (s *Store) updateEmployee(emp leave.Employee) error {
	if _, ok := s.employees[emp.ID]; !ok {
		return leave.ErrEmployeeNotFound
	}
	s.employees[emp.ID] = cloneEmployee(emp)
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) GetRequest(_ context.Context, id leave.RequestID) (leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRequest(id)
}

func (s *Store) getRequest(id leave.RequestID) (leave.Request, error) {
	r, ok := s.requests[id]
	if !ok {
		return leave.Request{}, leave.ErrRequestNotFound
	}
	return r, nil
}

func (s *Store) ListRequestsByEmployee(_ context.Context, employeeID generic.EntityID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterRequests(func(r leave.Request) bool { return r.EmployeeID == employeeID }), nil
}

func (s *Store) ListRequestsByStatus(_ context.Context, statuses ...leave.Status) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listByStatus(statuses), nil
}

func (s *Store) listByStatus(statuses []leave.Status) []leave.Request {
	want := make(map[leave.Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	return s.filterRequests(func(r leave.Request) bool { return want[r.Status] })
}

// filterRequests returns matches in creation order.
func (s *Store) filterRequests(keep func(leave.Request) bool) []leave.Request {
	var out []leave.Request
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) CreateRequest(_ context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

func (s *Store) UpdateRequest(_ context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateRequest(req)
}

func (s *Store) updateRequest(req leave.Request) error {
	if _, ok := s.requests[req.ID]; !ok {
		return leave.ErrRequestNotFound
	}
	s.requests[req.ID] = req
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx holds the write lock for the duration of fn.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	employees := make(map[generic.EntityID]leave.Employee, len(s.employees))
	for k, v := range s.employees {
		employees[k] = v
	}
	requests := make(map[leave.RequestID]leave.Request, len(s.requests))
	for k, v := range s.requests {
		requests[k] = v
	}

	err := s.TxMemory.WithTx(ctx, func(ledger generic.Store) error {
		return fn(&txView{Store: ledger, parent: s})
	})
	if err != nil {
		s.employees = employees
		s.requests = requests
	}
	return err
}

// txView runs against the parent's maps without locking; the parent's
// WithTx already holds the lock.
type txView struct {
	generic.Store
	parent *Store
}

func (v *txView) GetEmployee(_ context.Context, id generic.EntityID) (leave.Employee, error) {
	return v.parent.getEmployee(id)
}

func (v *txView) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	return v.parent.listEmployees(), nil
}

func (v *txView) CreateEmployee(_ context.Context, emp leave.Employee) error {
	return v.parent.createEmployee(emp)
}

func (v *txView) UpdateEmployee(_ context.Context, emp leave.Employee) error {
	return v.parent.updateEmployee(emp)
}

func (v *txView) GetRequest(_ context.Context, id leave.RequestID) (leave.Request, error) {
	return v.parent.getRequest(id)
}

func (v *txView) ListRequestsByEmployee(_ context.Context, employeeID generic.EntityID) ([]leave.Request, error) {
	return v.parent.filterRequests(func(r leave.Request) bool { return r.EmployeeID == employeeID }), nil
}

func (v *txView) ListRequestsByStatus(_ context.Context, statuses ...leave.Status) ([]leave.Request, error) {
	return v.parent.listByStatus(statuses), nil
}

func (v *txView) CreateRequest(_ context.Context, req leave.Request) error {
	v.parent.requests[req.ID] = req
	return nil
}

func (v *txView) UpdateRequest(_ context.Context, req leave.Request) error {
	return v.parent.updateRequest(req)
}

// WithTx nests into the enclosing transaction.
func (v *txView) WithTx(_ context.Context, fn func(leave.Store) error) error {
	return fn(v)
}

func cloneEmployee(e leave.Employee) leave.Employee {
	if e.AuthorizedAreas != nil {
		e.AuthorizedAreas = append([]string(nil), e.AuthorizedAreas...)
	}
	return e
}

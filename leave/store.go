package leave

import (
	"context"
	"fmt"

	"github.com/santamargarita/leave-engine/generic"
)

// =============================================================================
// REPOSITORIES
// =============================================================================

// EmployeeStore is the roster. GetEmployee returns ErrEmployeeNotFound for
// unknown ids and CreateEmployee returns ErrEmployeeExists for taken ones.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, id generic.EntityID) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	CreateEmployee(ctx context.Context, emp Employee) error
	UpdateEmployee(ctx context.Context, emp Employee) error
}

// RequestStore holds request records. GetRequest returns ErrRequestNotFound
// for unknown ids.
type RequestStore interface {
	GetRequest(ctx context.Context, id RequestID) (Request, error)
	ListRequestsByEmployee(ctx context.Context, employeeID generic.EntityID) ([]Request, error)
	ListRequestsByStatus(ctx context.Context, statuses ...Status) ([]Request, error)
	CreateRequest(ctx context.Context, req Request) error
	UpdateRequest(ctx context.Context, req Request) error
}

// Store is everything the service persists: roster, requests and the
// balance ledger. WithTx runs fn atomically; fn must use the Store it is
// handed, not the outer one.
type Store interface {
	EmployeeStore
	RequestStore
	generic.Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// LOCKS
// =============================================================================

// Locker serializes writers on a key. Acquire blocks until the lock is held
// or ctx is done; release must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// EmployeeLockKey scopes one employee's request history and balances.
func EmployeeLockKey(id generic.EntityID) string {
	return fmt.Sprintf("leave:employee:%s:lock", id)
}

// RequestLockKey scopes one request record.
func RequestLockKey(id RequestID) string {
	return fmt.Sprintf("leave:request:%s:lock", id)
}

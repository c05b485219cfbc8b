/*
errors.go - Errors shared by the ledger, stores and locks

ERROR CATEGORIES:
  1. Ledger: a reused idempotency key
  2. Balance: a movement that would take a balance below zero
  3. Concurrency: a write lock that could not be acquired in time
  4. Lookup: a missing employee or request (wrapped by leave)

USAGE:
  var ib *generic.InsufficientBalanceError
  if errors.As(err, &ib) {
      log.Info().Str("available", ib.Available.String()).Msg("balance exhausted")
  }
*/
package generic

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIdempotencyKey means the entry was already written.
	// Retries of a final approval hit this instead of consuming twice.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConcurrentModification is returned when a per-key write lock
	// could not be acquired before the context expired.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	ErrEntityNotFound = errors.New("entity not found")
)

// InsufficientBalanceError reports a movement larger than the balance.
type InsufficientBalanceError struct {
	EntityID  EntityID
	Resource  ResourceType
	Available Amount
	Requested Amount
	Shortfall Amount
}

func (e *InsufficientBalanceError) Error() string {
	resource := "balance"
	if e.Resource != nil {
		resource = e.Resource.ResourceID()
	}
	return fmt.Sprintf("insufficient %s for %s: available %v %s, requested %v, shortfall %v",
		resource, e.EntityID, e.Available.Value, e.Available.Unit, e.Requested.Value, e.Shortfall.Value)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// IsRetryable reports errors that may succeed on a later attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError reports errors caused by the request rather than the system.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrDuplicateIdempotencyKey)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

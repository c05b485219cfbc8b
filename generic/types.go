/*
Package generic provides the domain-agnostic building blocks of the leave engine.

PURPOSE:
  Types and algorithms that know nothing about hospitals, categories or
  approval tiers: calendar dates, clocks, eligibility periods, quantities
  with units, and an append-only ledger of balance movements. The leave
  package composes them into the eligibility and approval rules.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A whole or fractional quantity of days
  - Transaction: One immutable balance movement in the ledger
  - ResourceType: The balance a movement applies to, defined by the domain

LEDGER ENTRIES IN THIS SYSTEM:
  grant        opening balance when an employee joins the roster
  consumption  final HR approval of a vacation or union-day request
  adjustment   manual correction by HR (positive or negative)

USAGE:
  tx := generic.Transaction{
      EntityID:       "enf-001",
      ResourceType:   leave.CategoryVacation,
      Delta:          generic.NewAmountFromInt(-5, generic.UnitDays),
      Type:           generic.TxConsumption,
      IdempotencyKey: "approve-" + requestID,
  }

SEE ALSO:
  - period.go: Anniversary and calendar-month windows
  - ledger.go: Append and balance reads
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT
// =============================================================================

type Unit string

const UnitDays Unit = "days"

// Amount is stored as a decimal string so fractional corrections survive
// a round trip through SQLite.
type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// ParseAmount reads a decimal string as written by Amount.Value.String.
func ParseAmount(value string, unit Unit) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return Amount{Value: d, Unit: unit}, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) IsZero() bool        { return a.Value.IsZero() }

// IntPart truncates toward zero. Balances in this system are whole units.
func (a Amount) IntPart() int { return int(a.Value.IntPart()) }

func (a Amount) String() string { return a.Value.String() + " " + string(a.Unit) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntityID string
type TransactionID string

// ResourceType identifies which balance a transaction moves. The leave
// package implements it on its Category type:
//
//	func (c Category) ResourceID() string     { return string(c) }
//	func (c Category) ResourceDomain() string { return "leave" }
type ResourceType interface {
	ResourceID() string
	ResourceDomain() string
}

// =============================================================================
// TRANSACTION
// =============================================================================

type TransactionType string

const (
	TxGrant       TransactionType = "grant"
	TxConsumption TransactionType = "consumption"
	TxAdjustment  TransactionType = "adjustment"
)

// Transaction is never updated or deleted once appended. A wrong entry is
// corrected by appending an adjustment.
type Transaction struct {
	ID           TransactionID
	EntityID     EntityID
	ResourceType ResourceType
	EffectiveAt  TimePoint
	Delta        Amount
	Type         TransactionType

	// ReferenceID points at the leave request behind a consumption.
	ReferenceID    string
	Reason         string
	IdempotencyKey string
	Metadata       map[string]string

	CreatedBy string
	CreatedAt TimePoint
}

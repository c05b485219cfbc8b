/*
store.go - Persistence interface for the balance ledger

PURPOSE:
  The seam between Ledger and a database. Implementations:
  generic/store (in memory), leave/memstore (wraps it together with the
  roster) and store/sqlite.

CONTRACT:
  - No update or delete methods exist
  - Append and AppendBatch reject a reused idempotency key with
    ErrDuplicateIdempotencyKey; AppendBatch writes all entries or none
  - Loads return entries ordered by EffectiveAt, ties in append order

SEE ALSO:
  - ledger.go: Idempotency checks and balance sums on top of Store
*/
package generic

import "context"

type Store interface {
	Append(ctx context.Context, tx Transaction) error
	AppendBatch(ctx context.Context, txs []Transaction) error

	// Load returns one balance's entries for an entity.
	Load(ctx context.Context, entityID EntityID, resource ResourceType) ([]Transaction, error)

	// LoadRange is Load restricted to EffectiveAt in [from, to].
	LoadRange(ctx context.Context, entityID EntityID, resource ResourceType, from, to TimePoint) ([]Transaction, error)

	// LoadByEntity returns the entity's entries across all balances.
	LoadByEntity(ctx context.Context, entityID EntityID) ([]Transaction, error)

	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}

// TxStore runs fn atomically: an error from fn discards every write fn made.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

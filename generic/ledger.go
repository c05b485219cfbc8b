/*
ledger.go - Append-only log of balance movements

PURPOSE:
  Every change to a countable leave balance is written here: the opening
  grant when an employee joins, the consumption recorded by a final HR
  approval, and manual corrections. The balance fields on the employee
  record are the fast path; the ledger is the audit trail that explains
  them.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: entries are never updated or deleted
  2. IDEMPOTENT: an idempotency key is accepted once, so a retried final
     approval cannot consume a balance twice
  3. ORDERED: reads return entries by effective date

SEE ALSO:
  - store.go: Persistence interface
  - leave/service.go: Writes grants, consumptions and adjustments
*/
package generic

import "context"

// Ledger validates idempotency keys and computes balances over a Store.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Append writes tx unless its idempotency key has been seen.
func (l *Ledger) Append(ctx context.Context, tx Transaction) error {
	if err := l.checkKey(ctx, tx.IdempotencyKey); err != nil {
		return err
	}
	return l.store.Append(ctx, tx)
}

// AppendBatch writes all of txs or none of them.
func (l *Ledger) AppendBatch(ctx context.Context, txs []Transaction) error {
	for _, tx := range txs {
		if err := l.checkKey(ctx, tx.IdempotencyKey); err != nil {
			return err
		}
	}
	return l.store.AppendBatch(ctx, txs)
}

func (l *Ledger) checkKey(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	exists, err := l.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateIdempotencyKey
	}
	return nil
}

// History returns the entries for one balance of one entity.
func (l *Ledger) History(ctx context.Context, entityID EntityID, resource ResourceType) ([]Transaction, error) {
	return l.store.Load(ctx, entityID, resource)
}

// Between returns the entries effective in [from, to].
func (l *Ledger) Between(ctx context.Context, entityID EntityID, resource ResourceType, from, to TimePoint) ([]Transaction, error) {
	return l.store.LoadRange(ctx, entityID, resource, from, to)
}

// Movements returns every entry for the entity across all balances.
func (l *Ledger) Movements(ctx context.Context, entityID EntityID) ([]Transaction, error) {
	txs, err := l.store.LoadByEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return txs, nil
}

// BalanceAt sums the deltas effective on or before at.
func (l *Ledger) BalanceAt(ctx context.Context, entityID EntityID, resource ResourceType, at TimePoint, unit Unit) (Amount, error) {
	txs, err := l.History(ctx, entityID, resource)
	if err != nil {
		return Amount{}, err
	}

	balance := NewAmountFromInt(0, unit)
	for _, tx := range txs {
		if tx.EffectiveAt.After(at) {
			break
		}
		balance = balance.Add(tx.Delta)
	}
	return balance, nil
}

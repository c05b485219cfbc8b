// Package store provides in-memory generic.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/santamargarita/leave-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	transactions map[key][]generic.Transaction
	idempotency  map[string]bool
}

type key struct {
	EntityID generic.EntityID
	Resource string
}

func keyFor(entityID generic.EntityID, resource generic.ResourceType) key {
	return key{EntityID: entityID, Resource: resource.ResourceID()}
}

func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[key][]generic.Transaction),
		idempotency:  make(map[string]bool),
	}
}

// Append adds a single transaction. Append-only.
func (m *Memory) Append(_ context.Context, tx generic.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.IdempotencyKey != "" && m.idempotency[tx.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	m.appendLocked(tx)
	return nil
}

// AppendBatch adds multiple transactions atomically.
func (m *Memory) AppendBatch(_ context.Context, txs []generic.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendBatchLocked(txs)
}

func (m *Memory) appendBatchLocked(txs []generic.Transaction) error {
	// Check all idempotency keys first (atomic check), including within the batch
	seen := make(map[string]bool, len(txs))
	for _, tx := range txs {
		if tx.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[tx.IdempotencyKey] || seen[tx.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		seen[tx.IdempotencyKey] = true
	}

	for _, tx := range txs {
		m.appendLocked(tx)
	}
	return nil
}

func (m *Memory) appendLocked(tx generic.Transaction) {
	k := keyFor(tx.EntityID, tx.ResourceType)
	txs := m.transactions[k]

	// Binary search keeps each slice ordered by EffectiveAt, stable for equal dates
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].EffectiveAt.After(tx.EffectiveAt)
	})

	txs = append(txs, generic.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	m.transactions[k] = txs

	if tx.IdempotencyKey != "" {
		m.idempotency[tx.IdempotencyKey] = true
	}
}

func (m *Memory) Load(_ context.Context, entityID generic.EntityID, resource generic.ResourceType) ([]generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadLocked(entityID, resource), nil
}

func (m *Memory) loadLocked(entityID generic.EntityID, resource generic.ResourceType) []generic.Transaction {
	src := m.transactions[keyFor(entityID, resource)]
	result := make([]generic.Transaction, len(src))
	copy(result, src)
	return result
}

func (m *Memory) LoadRange(_ context.Context, entityID generic.EntityID, resource generic.ResourceType, from, to generic.TimePoint) ([]generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadRangeLocked(entityID, resource, from, to), nil
}

func (m *Memory) loadRangeLocked(entityID generic.EntityID, resource generic.ResourceType, from, to generic.TimePoint) []generic.Transaction {
	var result []generic.Transaction
	for _, tx := range m.transactions[keyFor(entityID, resource)] {
		if from.BeforeOrEqual(tx.EffectiveAt) && tx.EffectiveAt.BeforeOrEqual(to) {
			result = append(result, tx)
		}
	}
	return result
}

func (m *Memory) LoadByEntity(_ context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadByEntityLocked(entityID), nil
}

func (m *Memory) loadByEntityLocked(entityID generic.EntityID) []generic.Transaction {
	var result []generic.Transaction
	for k, txs := range m.transactions {
		if k.EntityID == entityID {
			result = append(result, txs...)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].EffectiveAt.Before(result[j].EffectiveAt)
	})
	return result
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

var _ generic.TxStore = (*TxMemory)(nil)

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

// memorySnapshot is a copy of the ledger used for rollback.
type memorySnapshot struct {
	transactions map[key][]generic.Transaction
	idempotency  map[string]bool
}

// snapshot copies the current state. Callers hold the write lock.
func (m *Memory) snapshot() memorySnapshot {
	txsCopy := make(map[key][]generic.Transaction, len(m.transactions))
	for k, v := range m.transactions {
		txsCopy[k] = append([]generic.Transaction{}, v...)
	}
	idempCopy := make(map[string]bool, len(m.idempotency))
	for k, v := range m.idempotency {
		idempCopy[k] = v
	}
	return memorySnapshot{transactions: txsCopy, idempotency: idempCopy}
}

func (m *Memory) restore(s memorySnapshot) {
	m.transactions = s.transactions
	m.idempotency = s.idempotency
}

type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) Append(_ context.Context, tx generic.Transaction) error {
	if tx.IdempotencyKey != "" && tv.parent.idempotency[tx.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	tv.parent.appendLocked(tx)
	return nil
}

func (tv *txMemoryView) AppendBatch(_ context.Context, txs []generic.Transaction) error {
	return tv.parent.appendBatchLocked(txs)
}

func (tv *txMemoryView) Load(_ context.Context, entityID generic.EntityID, resource generic.ResourceType) ([]generic.Transaction, error) {
	return tv.parent.loadLocked(entityID, resource), nil
}

func (tv *txMemoryView) LoadRange(_ context.Context, entityID generic.EntityID, resource generic.ResourceType, from, to generic.TimePoint) ([]generic.Transaction, error) {
	return tv.parent.loadRangeLocked(entityID, resource, from, to), nil
}

func (tv *txMemoryView) LoadByEntity(_ context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	return tv.parent.loadByEntityLocked(entityID), nil
}

func (tv *txMemoryView) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	return tv.parent.idempotency[idempotencyKey], nil
}

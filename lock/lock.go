/*
Package lock serializes writers per key.

PURPOSE:
  One employee's request history is a check-then-insert critical section
  (monthly pass quota, union day once per window). Both lockers here
  implement leave.Locker:

    KeyedMutex   in-process, one mutex per live key
    RedisLocker  shared across processes: SET NX PX with a random token,
                 released by a compare-and-delete script

  Acquire blocks until the lock is held or ctx is done, in which case it
  fails with generic.ErrConcurrentModification.
*/
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/santamargarita/leave-engine/generic"
)

// =============================================================================
// KEYED MUTEX
// =============================================================================

type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

// Acquire takes the lock for key. Entries are dropped once nobody holds or
// waits on them.
func (k *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.drop(key, e)
		return nil, fmt.Errorf("lock %s: %w: %v", key, generic.ErrConcurrentModification, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.drop(key, e)
		})
	}, nil
}

func (k *KeyedMutex) drop(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// Held reports how many keys currently have holders or waiters.
func (k *KeyedMutex) Held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

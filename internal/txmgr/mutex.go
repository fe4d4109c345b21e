// Package txmgr implements the transaction coordinator: per-account
// nonce resolution, keyed mutual exclusion, an in-memory transaction
// ledger with gas accounting, and the submitter that serializes
// state-changing contract calls.
package txmgr

import (
	"context"
	"sync"
)

// GlobalKey is the reserved mutex key gating system-wide submission.
const GlobalKey = "global"

// KeyedMutex provides mutual exclusion keyed by an opaque string,
// typically an account address. Mutexes are created lazily on first
// use and never removed; the key space is bounded by the number of
// distinct accounts in play.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewKeyedMutex creates an empty registry.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]chan struct{}),
	}
}

// lookup returns the semaphore for key, creating it idempotently.
// Insertion is atomic so concurrent first lookups of the same key
// observe a single handle.
func (k *KeyedMutex) lookup(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()

	sem, ok := k.locks[key]
	if !ok {
		sem = make(chan struct{}, 1)
		k.locks[key] = sem
	}
	return sem
}

// Lock blocks until the mutex for key is acquired and returns a
// release function. The release function may be called at most once;
// extra calls are no-ops.
func (k *KeyedMutex) Lock(key string) func() {
	sem := k.lookup(key)
	sem <- struct{}{}
	return k.releaser(sem)
}

// LockContext is Lock with cancellation. It returns a non-nil release
// function only when the lock was acquired.
func (k *KeyedMutex) LockContext(ctx context.Context, key string) (func(), error) {
	sem := k.lookup(key)
	select {
	case sem <- struct{}{}:
		return k.releaser(sem), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of distinct keys seen so far.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *KeyedMutex) releaser(sem chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() { <-sem })
	}
}

package locks

import (
	"context"
	"sync"
)

// Locker provides mutual exclusion per wallet. Every balance-affecting operation for a
// (user, wallet type) pair runs under its lock for the whole
// read-balance/validate/append window. External calls such as bank transfers must
// never run while the lock is held.
type Locker interface {
	// Lock acquires the lock for the given wallet key, blocking until it is available
	// or the context is done.
	Lock(ctx context.Context, walletID string) (Unlocker, error)
}

// Unlocker releases a held lock.
type Unlocker interface {
	Unlock()
}

// KeyedMutex is an in-process Locker backed by one mutex per wallet key.
// It serializes wallet mutations within a single process; deployments running
// multiple instances should use the Redis locker instead.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*walletLock
}

type walletLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates a new KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*walletLock)}
}

// Make sure we conform to the interface
var _ Locker = (*KeyedMutex)(nil)

// Lock acquires the per-wallet mutex. The context is only consulted before blocking;
// in-process waits are expected to be short.
func (k *KeyedMutex) Lock(ctx context.Context, walletID string) (Unlocker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	wl, ok := k.locks[walletID]
	if !ok {
		wl = &walletLock{}
		k.locks[walletID] = wl
	}
	wl.refs++
	k.mu.Unlock()

	wl.mu.Lock()

	return unlockFunc(func() {
		wl.mu.Unlock()
		k.mu.Lock()
		wl.refs--
		if wl.refs == 0 {
			delete(k.locks, walletID)
		}
		k.mu.Unlock()
	}), nil
}

type unlockFunc func()

func (f unlockFunc) Unlock() { f() }

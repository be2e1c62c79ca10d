// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import "sync"

// lockTable hands out per-identifier mutexes, created lazily and
// reclaimed once nothing holds or waits on them, so the table grows
// only with identifiers under active mutation rather than every
// identifier ever seen.
type lockTable struct {
	mu    sync.Mutex
	locks map[int64]*entryLock
}

type entryLock struct {
	mu sync.Mutex

	// refs counts holders plus waiters. Guarded by lockTable.mu.
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[int64]*entryLock)}
}

// acquire blocks until the lock for id is held and returns the
// release function, which must be called exactly once.
func (t *lockTable) acquire(id int64) (release func()) {
	t.mu.Lock()
	lock := t.locks[id]
	if lock == nil {
		lock = &entryLock{}
		t.locks[id] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		t.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(t.locks, id)
		}
		t.mu.Unlock()
	}
}

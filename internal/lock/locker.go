// Package lock serializes mutating requests per serie id. The
// load-decide-write sequence of an update is not atomic against the
// record store, so two concurrent updates to the same serie must not
// interleave.
package lock

import "sync"

type Locker interface {
	Lock(id string) Unlocker
}

type Unlocker interface {
	Unlock()
}

type lock struct {
	mu     sync.Mutex
	ref    uint64
	locker *locker
	id     string
}

// Unlock implements Unlocker.
func (lck *lock) Unlock() {
	lck.locker.release(lck)
	lck.mu.Unlock()
}

type locker struct {
	mu sync.Mutex
	l  map[string]*lock
}

func (l *locker) getOrCreate(id string) *lock {
	l.mu.Lock()
	defer l.mu.Unlock()

	result, ok := l.l[id]
	if !ok {
		result = &lock{locker: l, id: id}
		l.l[id] = result
	}
	result.ref++
	return result
}

// Lock implements Locker.
func (l *locker) Lock(id string) Unlocker {
	itemLock := l.getOrCreate(id)
	itemLock.mu.Lock()
	return itemLock
}

func (l *locker) release(lck *lock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lck.ref--
	if lck.ref == 0 {
		delete(l.l, lck.id)
	}
}

func NewLocker() Locker {
	return &locker{
		l: map[string]*lock{},
	}
}

package engine

import (
	"sort"
	"sync"
)

// entityLocks serializes quantity mutation per donation/request id.
// Operations on unrelated entities never block each other.
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *entityLocks) get(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// LockPair acquires the locks for both ids in sorted order so two approvals
// touching the same donation/request pair can never deadlock. Returns the
// unlock function.
func (l *entityLocks) LockPair(a, b string) func() {
	ids := []string{a, b}
	sort.Strings(ids)

	first := l.get(ids[0])
	first.Lock()
	if ids[0] == ids[1] {
		return first.Unlock
	}

	second := l.get(ids[1])
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

package rental

import (
	"sync"
)

// keyedMutex serializes callers per string key. The orchestrator keeps one
// for vehicle IDs (the reservation unit) and one for rental IDs (lifecycle
// operations). Locks for distinct keys do not contend.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[string]*keyedLock),
	}
}

// Lock acquires the mutex for key, creating it on first use. The returned
// func releases the mutex and drops the entry once no caller holds or waits
// on it, so the map does not grow with the ID space.
func (m *keyedMutex) Lock(key string) func() {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyedLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

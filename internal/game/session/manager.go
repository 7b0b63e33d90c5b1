// Package session serializes game mutations per player. Every mutating
// service operation holds the player's session lock for its full
// load-mutate-persist span, so a player never has two operations racing
// over the same dungeon or ledger.
package session

import "sync"

// Manager hands out one lock per player. All methods are safe for
// concurrent use.
type Manager struct {
	mu    sync.Mutex
	locks map[int64]*entry
}

type entry struct {
	mu sync.Mutex
	// refs counts holders plus waiters so idle entries can be dropped.
	refs int
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{locks: make(map[int64]*entry)}
}

// Lock acquires the player's session lock, blocking while another
// operation holds it, and returns the release function.
//
// Postcondition: the caller holds the lock until it calls the returned
// function, which must be called exactly once.
func (m *Manager) Lock(playerID int64) func() {
	m.mu.Lock()
	e, ok := m.locks[playerID]
	if !ok {
		e = &entry{}
		m.locks[playerID] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			m.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(m.locks, playerID)
			}
			m.mu.Unlock()
		})
	}
}

// Active returns the number of players with a held or contended lock.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

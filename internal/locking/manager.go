// Package locking provides named advisory locks that serialize planning against trade
// execution within one process.
package locking

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Lock names shared by planning and execution.
const (
	PlanningLock = "planning"
)

// ErrLocked is returned when a lock is already held.
var ErrLocked = errors.New("lock already held")

// Manager hands out named, non-reentrant locks.
type Manager struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

// NewManager creates an empty lock manager.
func NewManager() *Manager {
	return &Manager{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Acquire takes the named lock without blocking.
func (m *Manager) Acquire(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if since, held := m.locks[name]; held {
		return fmt.Errorf("%w: %s (since %s)", ErrLocked, name, since.Format(time.RFC3339))
	}
	m.locks[name] = m.now()
	return nil
}

// Release frees the named lock. Releasing a free lock is a no-op.
func (m *Manager) Release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, name)
}

// IsLocked reports whether the named lock is held.
func (m *Manager) IsLocked(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.locks[name]
	return held
}

// ClearStuckLocks releases locks held longer than maxAge and returns their names sorted.
func (m *Manager) ClearStuckLocks(maxAge time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	var cleared []string
	for name, since := range m.locks {
		if since.Before(cutoff) {
			delete(m.locks, name)
			cleared = append(cleared, name)
		}
	}
	sort.Strings(cleared)
	return cleared
}

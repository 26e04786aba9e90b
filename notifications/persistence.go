package notifications

import "sync"

// Persistence stores the local snapshot across sessions.
type Persistence interface {
	// Load retrieves the snapshot. A missing record yields an empty
	// snapshot, not an error.
	Load() (Snapshot, error)

	// Save rewrites the full snapshot.
	Save(snap Snapshot) error
}

// MemoryPersistence keeps the snapshot in memory. It backs tests and
// sessions that opt out of durable state.
type MemoryPersistence struct {
	mu    sync.Mutex
	snap  Snapshot
	saves int
}

// NewMemoryPersistence creates an empty in-memory store.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

func (m *MemoryPersistence) Load() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *MemoryPersistence) Save(snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryPersistence) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

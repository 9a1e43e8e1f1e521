package store

import (
	"context"
	"sync"
)

// Persister loads and saves the whole workspace snapshot. Load reports false
// when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, snap Snapshot) error
}

// MemoryPersister keeps the last saved snapshot in memory.
type MemoryPersister struct {
	mu    sync.Mutex
	snap  Snapshot
	saved bool
	Saves int
}

func NewMemoryPersister() *MemoryPersister { return &MemoryPersister{} }

func (m *MemoryPersister) Load(context.Context) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return Snapshot{}, false, nil
	}
	return cloneSnapshot(m.snap), true, nil
}

func (m *MemoryPersister) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = cloneSnapshot(snap)
	m.saved = true
	m.Saves++
	return nil
}

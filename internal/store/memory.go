package store

import (
	"context"
	"sync"

	"github.com/iwvelando/property-analyzer/internal/analysis"
)

// Memory keeps records in process. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	records map[string]analysis.Record
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]analysis.Record)}
}

// Save stores a copy of r, assigning an id when it has none.
func (m *Memory) Save(_ context.Context, r analysis.Record) (analysis.Record, error) {
	r, err := prepare(r)
	if err != nil {
		return r, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = r.Clone()
	return r, nil
}

// Get returns a copy of the record with the given id or ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (analysis.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return analysis.Record{}, ErrNotFound
	}
	return r.Clone(), nil
}

// ListByOwner returns copies of the owner's records ordered by name. Owners
// match case-insensitively.
func (m *Memory) ListByOwner(_ context.Context, owner string) ([]analysis.Record, error) {
	key := ownerKey(owner)
	m.mu.RLock()
	out := []analysis.Record{}
	for _, r := range m.records {
		if ownerKey(r.Owner) == key {
			out = append(out, r.Clone())
		}
	}
	m.mu.RUnlock()
	sortByName(out)
	return out, nil
}

// Delete removes the record with the given id or returns ErrNotFound.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

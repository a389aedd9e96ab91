package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps records in process. Documents are cloned on the way
// in and out.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]Record
	clock   Clock
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository(opts ...Option) *MemoryRepository {
	return &MemoryRepository{records: make(map[string]Record), clock: buildOptions(opts).clock}
}

func (m *MemoryRepository) Save(ctx context.Context, rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = stamp(rec, m.clock)
	return nil
}

func (m *MemoryRepository) Load(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Document = rec.Document.Clone()
	return rec, nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Summary, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, summarize(rec))
	}
	m.mu.RUnlock()
	sortSummaries(out)
	return out, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// sortSummaries orders by most recent update, then id.
func sortSummaries(items []Summary) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

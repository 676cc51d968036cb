package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/cleared-dev/bankflow/internal/target"
)

// Memory is an in-process TableStore used by tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	records []target.Record
}

// NewMemory creates a Memory store seeded with records.
func NewMemory(records ...target.Record) *Memory {
	m := &Memory{}
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		m.records = append(m.records, r)
	}
	return m
}

// List implements TableStore. Page tokens are row offsets.
func (m *Memory) List(_ context.Context, pageToken string, pageSize int) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return Page{}, err
		}
		offset = n
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if offset >= len(m.records) {
		return Page{}, nil
	}
	end := min(offset+pageSize, len(m.records))
	page := Page{Items: append([]target.Record(nil), m.records[offset:end]...)}
	if end < len(m.records) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

// Create implements TableStore.
func (m *Memory) Create(_ context.Context, fields target.Fields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.records = append(m.records, target.Record{ID: id, Fields: fields})
	return id, nil
}

// UpdateType implements TableStore.
func (m *Memory) UpdateType(_ context.Context, id, typ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Type = typ
			return nil
		}
	}
	return ErrNotFound
}

// DeleteMany implements TableStore. Unknown IDs are ignored.
func (m *Memory) DeleteMany(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.records[:0]
	for _, r := range m.records {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return nil
}

// Records returns a copy of all rows.
func (m *Memory) Records() []target.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]target.Record(nil), m.records...)
}

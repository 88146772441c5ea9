package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store. It keeps the JSON encoding of every
// record so reads and writes go through the same representation as the
// SQL-backed store. Useful for tests and for running without a
// database.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]map[string][]byte)}
}

func (m *MemStore) Get(ctx context.Context, collection, id string, dest interface{}) error {
	m.mu.RLock()
	raw, ok := m.data[collection][id]
	m.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

func (m *MemStore) Query(ctx context.Context, collection, field string, value interface{}, dest interface{}) error {
	m.mu.RLock()
	records := m.data[collection]
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var raws [][]byte
	for _, id := range ids {
		raw := records[id]
		ok, err := matchField(raw, field, value)
		if err != nil {
			m.mu.RUnlock()
			return err
		}
		if ok {
			raws = append(raws, raw)
		}
	}
	m.mu.RUnlock()

	return decodeList(raws, dest)
}

func (m *MemStore) Set(ctx context.Context, collection, id string, record interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string][]byte)
	}
	m.data[collection][id] = raw
	return nil
}

func (m *MemStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.data[collection][id]
	if !ok {
		return ErrNotFound
	}
	merged, err := mergeFields(raw, fields)
	if err != nil {
		return err
	}
	m.data[collection][id] = merged
	return nil
}

func (m *MemStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], id)
	return nil
}

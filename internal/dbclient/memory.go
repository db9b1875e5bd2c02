package dbclient

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"casetrack/internal/etl"
)

// MemoryRepository keeps items in process memory. It backs dry runs and tests.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[int]map[string]etl.Item
	// PageSize limits the items per QueryPage; 0 means pageSize.
	PageSize int
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[int]map[string]etl.Item)}
}

func (m *MemoryRepository) QueryPage(_ context.Context, partition int, startKey string) (etl.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.items[partition]))
	for k := range m.items[partition] {
		if k > startKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	size := m.PageSize
	if size <= 0 {
		size = pageSize
	}
	var page etl.Page
	if len(keys) > size {
		keys = keys[:size]
		page.NextKey = keys[size-1]
	}
	for _, k := range keys {
		page.Items = append(page.Items, m.items[partition][k])
	}
	return page, nil
}

func (m *MemoryRepository) PutItem(_ context.Context, item etl.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(item)
	return nil
}

func (m *MemoryRepository) BatchWriteItems(_ context.Context, items []etl.Item) error {
	if len(items) > etl.MaxBatchSize {
		return fmt.Errorf("batch of %d items exceeds %d", len(items), etl.MaxBatchSize)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.putLocked(it)
	}
	return nil
}

func (m *MemoryRepository) putLocked(item etl.Item) {
	part, ok := m.items[item.Dataset]
	if !ok {
		part = make(map[string]etl.Item)
		m.items[item.Dataset] = part
	}
	part[item.Date] = item
}

// Len returns the number of stored items across partitions.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, part := range m.items {
		n += len(part)
	}
	return n
}

func (m *MemoryRepository) Close() error { return nil }

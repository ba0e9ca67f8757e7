package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Contents are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	buckets map[string]map[string]Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string]Entry)}
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, bucket string, entries ...Entry) error {
	if bucket == "" {
		return ErrEmptyBucket
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string]Entry)
		m.buckets[bucket] = b
		m.order = append(m.order, bucket)
	}
	for _, e := range entries {
		b[e.URL] = e
	}
	return nil
}

// Match implements Store.
func (m *MemoryStore) Match(ctx context.Context, url string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, name := range m.order {
		if e, ok := m.buckets[name][url]; ok {
			return &e, nil
		}
	}
	return nil, nil
}

// Buckets implements Store.
func (m *MemoryStore) Buckets(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, bucket string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		return false, nil
	}
	delete(m.buckets, bucket)
	for i, name := range m.order {
		if name == bucket {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

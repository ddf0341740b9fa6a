package storage

import "sync"

// MemStore is an in-memory KVStore. It backs tests and serves as the
// ephemeral fallback when the sqlite file cannot be opened.
type MemStore struct {
	mu       sync.RWMutex
	data     map[string]string
	used     int64
	capacity int64
}

func NewMemStore(capacity int64) *MemStore {
	return &MemStore{
		data:     make(map[string]string),
		capacity: capacity,
	}
}

func (m *MemStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.used + entrySize(key, value)
	if prev, ok := m.data[key]; ok {
		next -= entrySize(key, prev)
	}
	if next > m.capacity {
		return ErrQuotaExceeded
	}
	m.data[key] = value
	m.used = next
	return nil
}

func (m *MemStore) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.data[key]; ok {
		m.used -= entrySize(key, prev)
		delete(m.data, key)
	}
}

func (m *MemStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

func (m *MemStore) Capacity() int64 {
	return m.capacity
}

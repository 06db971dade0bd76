package kvstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store. It backs tests and the ephemeral
// deployment mode; nothing written to it survives the process.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string][]byte
	notifier *notifier

	saveCount int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string][]byte),
		notifier: newNotifier(),
	}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	m.saveCount++
	m.mu.Unlock()

	m.notifier.publish(key)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()

	m.notifier.publish(key)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Watch(key string) (<-chan Event, func()) {
	return m.notifier.subscribe(key)
}

func (m *MemoryStore) Close() error {
	m.notifier.closeAll()
	return nil
}

// SaveCount reports the number of Save calls. Tests use it to assert
// that batch operations coalesce into a single persisted write.
func (m *MemoryStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCount
}

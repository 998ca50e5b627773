package kv

import (
	"cmp"
	"slices"
	"sync"
)

// OrderedMap is a mutex-guarded store whose Range visits keys in ascending
// order. Used for the serving registry, where a stable listing order
// matters more than lock-free reads.
type OrderedMap[K cmp.Ordered, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewOrderedMap[K cmp.Ordered, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{m: make(map[K]V)}
}

var _ KVS[string, any] = (*OrderedMap[string, any])(nil)

// Get implements KVS
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.m[key]
	return v, ok
}

// Set implements KVS
func (m *OrderedMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.m[key] = value
}

// Range visits entries in ascending key order. Entries removed between the
// key snapshot and the visit are skipped.
func (m *OrderedMap[K, V]) Range(f func(key K, value V) bool) {
	m.mu.RLock()
	keys := make([]K, 0, len(m.m))
	for k := range m.m {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	slices.Sort(keys)

	for _, k := range keys {
		v, ok := m.Get(k)
		if !ok {
			continue
		}
		if !f(k, v) {
			return
		}
	}
}

func (m *OrderedMap[K, V]) Close() {}

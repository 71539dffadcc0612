package selector

import "sync"

// memo caches the last computed value for a single comparable key.
type memo[K comparable, V any] struct {
	mu    sync.Mutex
	valid bool
	key   K
	val   V
}

func (m *memo[K, V]) get(key K, compute func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.key == key {
		return m.val
	}
	m.val = compute()
	m.key = key
	m.valid = true
	return m.val
}

// keyedMemo caches one value per argument for the current revision. The
// whole cache is dropped when the revision moves.
type keyedMemo[A comparable, V any] struct {
	mu       sync.Mutex
	revision uint64
	valid    bool
	vals     map[A]V
}

func (m *keyedMemo[A, V]) get(revision uint64, arg A, compute func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.valid || m.revision != revision {
		m.vals = make(map[A]V)
		m.revision = revision
		m.valid = true
	}
	if v, ok := m.vals[arg]; ok {
		return v
	}
	v := compute()
	m.vals[arg] = v
	return v
}

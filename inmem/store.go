// Package inmem provides in-process caches partitioned by repository root.
package inmem

import "sync"

// Store is a map keyed by K and partitioned by repository root, so every
// entry belonging to one root can be dropped in a single step. It is safe
// for concurrent use.
type Store[K comparable, V any] struct {
	mu    sync.Mutex
	roots map[string]map[K]V
}

// NewStore creates an empty store.
func NewStore[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{roots: make(map[string]map[K]V)}
}

// Get returns the value stored under (root, key).
func (s *Store[K, V]) Get(root string, key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.roots[root][key]
	return v, ok
}

// Put stores v under (root, key), superseding any previous value.
func (s *Store[K, V]) Put(root string, key K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.roots[root]
	if !ok {
		m = make(map[K]V)
		s.roots[root] = m
	}
	m[key] = v
}

// InvalidateRoot removes every entry for root. Other roots are untouched.
func (s *Store[K, V]) InvalidateRoot(root string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roots, root)
}

// Len returns the number of entries stored for root.
func (s *Store[K, V]) Len(root string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.roots[root])
}

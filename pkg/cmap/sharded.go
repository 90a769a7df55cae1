package cmap

import (
	"hash/maphash"
	"sync"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// Map is a concurrent-safe sharded map.
type Map[K comparable, V any] struct {
	shards    []*shard[K, V]
	shardMask uint64
	seed      maphash.Seed
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates a new sharded map with the default shard count.
func New[K comparable, V any]() *Map[K, V] {
	return NewWithShards[K, V](DefaultShardCount)
}

// NewWithShards creates a new sharded map with the specified shard count.
// shardCount must be a power of 2, otherwise DefaultShardCount is used.
func NewWithShards[K comparable, V any](shardCount int) *Map[K, V] {
	if shardCount <= 0 || shardCount&(shardCount-1) != 0 {
		shardCount = DefaultShardCount
	}

	m := &Map[K, V]{
		shards:    make([]*shard[K, V], shardCount),
		shardMask: uint64(shardCount - 1),
		seed:      maphash.MakeSeed(),
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{items: make(map[K]V)}
	}

	return m
}

func (m *Map[K, V]) getShard(key K) *shard[K, V] {
	return m.shards[maphash.Comparable(m.seed, key)&m.shardMask]
}

// Get retrieves a value by key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.getShard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.items[key]
	return val, ok
}

// Set stores a key-value pair.
func (m *Map[K, V]) Set(key K, value V) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Delete removes a key.
func (m *Map[K, V]) Delete(key K) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Upsert stores fn(current, exists) under key and returns it. fn runs with
// the shard locked and must not call back into the map.
func (m *Map[K, V]) Upsert(key K, fn func(current V, exists bool) V) V {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.items[key]
	next := fn(current, exists)
	s.items[key] = next
	return next
}

// Count returns the total number of items.
func (m *Map[K, V]) Count() int {
	count := 0
	for _, s := range m.shards {
		s.mu.RLock()
		count += len(s.items)
		s.mu.RUnlock()
	}
	return count
}

// Range calls fn for every pair until fn returns false.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// DeleteFunc removes every pair for which del returns true and reports how
// many were removed.
func (m *Map[K, V]) DeleteFunc(del func(key K, value V) bool) int {
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if del(k, v) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

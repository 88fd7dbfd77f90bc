package eventlog

import (
	"bytes"
	"sort"
	"sync"
)

// MemStore is an in-memory KVStore, adapted from the teacher's
// core.InMemoryStore / core.InMemoryIterator (core/cross_chain.go), used
// for tests and for light, ephemeral nodes that opt out of durable
// storage.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemStore) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[string(key)]
	return ok, nil
}

func (s *MemStore) Set(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[string(key)] = v
	return nil
}

func (s *MemStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) Iterator(start, end []byte) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys [][]byte
	for k := range s.data {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, kb)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = s.data[string(k)]
	}
	return &memIterator{keys: keys, values: values, index: -1}, nil
}

type memIterator struct {
	keys   [][]byte
	values [][]byte
	index  int
}

func (it *memIterator) Next() bool {
	it.index++
	return it.index < len(it.keys)
}
func (it *memIterator) Key() []byte   { return it.keys[it.index] }
func (it *memIterator) Value() []byte { return it.values[it.index] }
func (it *memIterator) Error() error  { return nil }
func (it *memIterator) Close() error  { return nil }

// memBatch buffers writes and applies them to the parent store on Write,
// giving MemStore the same atomic-commit shape as the goleveldb-backed
// store even though in-memory writes never actually need to roll back.
type memBatch struct {
	store   *MemStore
	sets    map[string][]byte
	deletes map[string]struct{}
}

func (s *MemStore) NewBatch() Batch {
	return &memBatch{store: s, sets: make(map[string][]byte), deletes: make(map[string]struct{})}
}

func (b *memBatch) Set(key, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	b.sets[string(key)] = v
	delete(b.deletes, string(key))
}

func (b *memBatch) Delete(key []byte) {
	b.deletes[string(key)] = struct{}{}
	delete(b.sets, string(key))
}

func (b *memBatch) Write() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for k, v := range b.sets {
		b.store.data[k] = v
	}
	for k := range b.deletes {
		delete(b.store.data, k)
	}
	return nil
}

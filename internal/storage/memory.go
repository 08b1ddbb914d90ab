package storage

import (
	"sort"
	"strings"
	"sync"
)

// MemoryDB is a DB held in a map. It is safe for concurrent use and walks
// keys in order, like BadgerDB.
type MemoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory database.
func NewMemory() *MemoryDB {
	return &MemoryDB{data: make(map[string][]byte)}
}

// Put stores a copy of value under key.
func (m *MemoryDB) Put(key, value []byte) error {
	m.mu.Lock()
	m.data[string(key)] = append([]byte{}, value...)
	m.mu.Unlock()
	return nil
}

// PutAll stores copies of all entries.
func (m *MemoryDB) PutAll(entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.data[string(e.Key)] = append([]byte{}, e.Value...)
	}
	return nil
}

// Delete removes key.
func (m *MemoryDB) Delete(key []byte) error {
	m.mu.Lock()
	delete(m.data, string(key))
	m.mu.Unlock()
	return nil
}

// DeletePrefix removes every key under prefix.
func (m *MemoryDB) DeletePrefix(prefix []byte) error {
	p := string(prefix)
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, p) {
			delete(m.data, k)
		}
	}
	return nil
}

// ForEach walks the keys under prefix in order. fn runs on a snapshot, so
// it may write to the DB.
func (m *MemoryDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)

	m.mu.RLock()
	var keys []string
	snapshot := make(map[string][]byte)
	for k, v := range m.data {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
			snapshot[k] = append([]byte(nil), v...)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), snapshot[k]); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op.
func (m *MemoryDB) Close() error {
	return nil
}

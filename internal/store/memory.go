// internal/store/memory.go
//
// Slot abstraction plus its in-memory implementation.
// A Slot is the key/value capability a persisted record lives in; it plays the
// part local storage plays in a browser.
//
// Characteristics of the memory slot:
//   - Values are copied in and out so callers can't alias stored bytes.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
)

// Slot defines the persistence interface for serialized records.
// Implementations may be backed by memory (this file), a JSON file, SQLite or Postgres.
type Slot interface {
	// Get returns the value stored under key. ok is false when nothing is stored.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, overwriting any prior value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// memory is an in-memory map-based Slot implementation.
type memory struct {
	mu      sync.RWMutex      // guards records map
	records map[string][]byte // keyed by record key
}

// NewMemorySlot constructs a new in-memory Slot.
func NewMemorySlot() Slot {
	return &memory{records: make(map[string][]byte)}
}

// Get looks up a record by key.
func (m *memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.records[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set adds or replaces the record.
func (m *memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), value...)
	return nil
}

// Delete drops the record if present.
func (m *memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

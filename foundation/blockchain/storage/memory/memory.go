// Package memory implements the ability to keep snapshots in memory.
package memory

import (
	"encoding/json"
	"sync"

	"github.com/ponpase/snax/foundation/blockchain/storage"
)

// Memory represents the serialization implementation for storing the
// latest snapshot in memory. This implements the storage.Serializer
// interface.
type Memory struct {
	mu       sync.RWMutex
	snapshot *storage.Snapshot
	writes   int
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write replaces the stored snapshot with a copy of the specified one.
func (m *Memory) Write(snapshot storage.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make(map[string]json.RawMessage, len(snapshot.Documents))
	for key, doc := range snapshot.Documents {
		docs[key] = append(json.RawMessage(nil), doc...)
	}
	snapshot.Documents = docs

	m.snapshot = &snapshot
	m.writes++

	return nil
}

// Read returns the latest snapshot.
func (m *Memory) Read() (storage.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot == nil {
		return storage.Snapshot{}, storage.ErrNotFound
	}
	return *m.snapshot, nil
}

// Writes returns the number of snapshots written.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes
}

// Reset clears out the stored snapshot.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot = nil
	return nil
}

package tablestore

import (
	"sync"

	"github.com/x1-labs/tachyon/pkg/types"
)

// MemoryStore is an in-memory implementation of Store for testing.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[types.Pubkey]*LookupTable
}

// NewMemoryStore creates a new in-memory table store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[types.Pubkey]*LookupTable),
	}
}

// GetTable retrieves a table by its account key.
// Returns nil, nil if the table does not exist.
func (s *MemoryStore) GetTable(key types.Pubkey) (*LookupTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, exists := s.tables[key]
	if !exists {
		return nil, nil
	}
	return table.clone(), nil
}

// SetTable stores a table.
func (s *MemoryStore) SetTable(key types.Pubkey, table *LookupTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[key] = table.clone()
	return nil
}

// DeleteTable removes a table.
func (s *MemoryStore) DeleteTable(key types.Pubkey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tables, key)
	return nil
}

// HasTable returns true if the table exists.
func (s *MemoryStore) HasTable(key types.Pubkey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.tables[key]
	return exists
}

// TableCount returns the total number of stored tables.
func (s *MemoryStore) TableCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.tables))
}

// Close closes the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables = make(map[types.Pubkey]*LookupTable)
	return nil
}
